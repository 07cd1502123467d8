package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/slatedeck/slatedeck/internal/models"
)

type sqliteAlertLogRepo struct {
	db *sql.DB
}

func (r *sqliteAlertLogRepo) Create(ctx context.Context, entry *models.AlertLog) error {
	var status sql.NullInt64
	if entry.WebhookStatus != nil {
		status = sql.NullInt64{Int64: int64(*entry.WebhookStatus), Valid: true}
	}

	query := `
		INSERT INTO alert_logs (id, alert_id, threshold_value, actual_value,
			webhook_response_status, webhook_response_body, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.AlertID, entry.ThresholdValue, entry.ActualValue,
		status, nullString(entry.WebhookBody), entry.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert log: %w", err)
	}
	return nil
}

func (r *sqliteAlertLogRepo) List(ctx context.Context, limit, offset int) ([]*models.AlertLog, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_logs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count alert logs: %w", err)
	}

	query := `
		SELECT id, alert_id, threshold_value, actual_value,
			webhook_response_status, webhook_response_body, triggered_at
		FROM alert_logs ORDER BY triggered_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query alert logs: %w", err)
	}
	defer rows.Close()

	entries, err := scanAlertLogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, rows.Err()
}

func (r *sqliteAlertLogRepo) ListByAlert(ctx context.Context, alertID string, limit, offset int) ([]*models.AlertLog, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM alert_logs WHERE alert_id = ?", alertID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count alert logs by alert: %w", err)
	}

	query := `
		SELECT id, alert_id, threshold_value, actual_value,
			webhook_response_status, webhook_response_body, triggered_at
		FROM alert_logs WHERE alert_id = ? ORDER BY triggered_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, alertID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query alert logs by alert: %w", err)
	}
	defer rows.Close()

	entries, err := scanAlertLogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, rows.Err()
}

func scanAlertLogs(rows *sql.Rows) ([]*models.AlertLog, error) {
	var entries []*models.AlertLog
	for rows.Next() {
		entry := &models.AlertLog{}
		var status sql.NullInt64
		var body sql.NullString

		err := rows.Scan(&entry.ID, &entry.AlertID, &entry.ThresholdValue,
			&entry.ActualValue, &status, &body, &entry.TriggeredAt)
		if err != nil {
			return nil, fmt.Errorf("scan alert log: %w", err)
		}

		if status.Valid {
			code := int(status.Int64)
			entry.WebhookStatus = &code
		}
		entry.WebhookBody = body.String
		entries = append(entries, entry)
	}
	return entries, nil
}
