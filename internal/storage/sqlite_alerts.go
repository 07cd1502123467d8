package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/slatedeck/slatedeck/internal/models"
)

type sqliteAlertRepo struct {
	db *sql.DB
}

const alertColumns = `id, name, description, question_id, query, threshold_operator,
	threshold_value, webhook_url, is_active, check_frequency, user_id, created_at, updated_at`

func (r *sqliteAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (id, name, description, question_id, query, threshold_operator,
			threshold_value, webhook_url, is_active, check_frequency, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		alert.ID, alert.Name, nullString(alert.Description), nullString(alert.QuestionID),
		nullString(alert.Query), string(alert.ThresholdOperator), alert.ThresholdValue,
		alert.WebhookURL, boolToInt(alert.IsActive), alert.CheckFrequency,
		nullString(alert.UserID), alert.CreatedAt, alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+alertColumns+" FROM alerts WHERE id = ?", id)

	alert, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return alert, nil
}

func (r *sqliteAlertRepo) Update(ctx context.Context, alert *models.Alert) error {
	query := `
		UPDATE alerts SET name = ?, description = ?, question_id = ?, query = ?,
			threshold_operator = ?, threshold_value = ?, webhook_url = ?,
			is_active = ?, check_frequency = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		alert.Name, nullString(alert.Description), nullString(alert.QuestionID),
		nullString(alert.Query), string(alert.ThresholdOperator), alert.ThresholdValue,
		alert.WebhookURL, boolToInt(alert.IsActive), alert.CheckFrequency,
		alert.UpdatedAt, alert.ID,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", alert.ID)
	}
	return nil
}

func (r *sqliteAlertRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM alerts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", id)
	}
	return nil
}

func (r *sqliteAlertRepo) List(ctx context.Context) ([]*models.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM alerts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// ListActive returns all active alerts with the query text resolved:
// an alert with an embedded query keeps it, otherwise the referenced
// question's query is used.
func (r *sqliteAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	query := `
		SELECT a.id, a.name, a.description, a.question_id,
			CASE WHEN a.query IS NOT NULL AND a.query != '' THEN a.query
				ELSE COALESCE(q.query, '') END AS query,
			a.threshold_operator, a.threshold_value, a.webhook_url,
			a.is_active, a.check_frequency, a.user_id, a.created_at, a.updated_at
		FROM alerts a
		LEFT JOIN questions q ON q.id = a.question_id
		WHERE a.is_active = 1
		ORDER BY a.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (r *sqliteAlertRepo) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE alerts SET is_active = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set alert active: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", id)
	}
	return nil
}

func scanAlerts(rows *sql.Rows) ([]*models.Alert, error) {
	var alerts []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*models.Alert, error) {
	alert := &models.Alert{}
	var description, questionID, query, userID sql.NullString
	var operator string
	var isActive int

	err := row.Scan(
		&alert.ID, &alert.Name, &description, &questionID, &query, &operator,
		&alert.ThresholdValue, &alert.WebhookURL, &isActive, &alert.CheckFrequency,
		&userID, &alert.CreatedAt, &alert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	alert.Description = description.String
	alert.QuestionID = questionID.String
	alert.Query = query.String
	alert.UserID = userID.String
	alert.ThresholdOperator = models.Operator(operator)
	alert.IsActive = isActive != 0

	return alert, nil
}
