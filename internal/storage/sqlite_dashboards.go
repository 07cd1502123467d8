package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/slatedeck/slatedeck/internal/models"
)

type sqliteDashboardRepo struct {
	db *sql.DB
}

func (r *sqliteDashboardRepo) Create(ctx context.Context, d *models.Dashboard) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboards (id, name, description, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Name, nullString(d.Description), nullString(d.UserID), d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dashboard: %w", err)
	}
	return nil
}

func (r *sqliteDashboardRepo) GetByID(ctx context.Context, id string) (*models.Dashboard, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, user_id, created_at
		FROM dashboards WHERE id = ?
	`, id)

	d := &models.Dashboard{}
	var description, userID sql.NullString
	err := row.Scan(&d.ID, &d.Name, &description, &userID, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}
	d.Description = description.String
	d.UserID = userID.String
	return d, nil
}

func (r *sqliteDashboardRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM dashboards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete dashboard: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("dashboard not found: %s", id)
	}
	return nil
}

func (r *sqliteDashboardRepo) List(ctx context.Context) ([]*models.Dashboard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, user_id, created_at
		FROM dashboards ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query dashboards: %w", err)
	}
	defer rows.Close()

	var dashboards []*models.Dashboard
	for rows.Next() {
		d := &models.Dashboard{}
		var description, userID sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &description, &userID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dashboard: %w", err)
		}
		d.Description = description.String
		d.UserID = userID.String
		dashboards = append(dashboards, d)
	}
	return dashboards, rows.Err()
}

func (r *sqliteDashboardRepo) AddSection(ctx context.Context, s *models.DashboardSection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboard_sections (id, dashboard_id, name, display_order, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.DashboardID, s.Name, s.DisplayOrder, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dashboard section: %w", err)
	}
	return nil
}

func (r *sqliteDashboardRepo) DeleteSection(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM dashboard_sections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete dashboard section: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("dashboard section not found: %s", id)
	}
	return nil
}

func (r *sqliteDashboardRepo) ListSections(ctx context.Context, dashboardID string) ([]*models.DashboardSection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dashboard_id, name, display_order, created_at
		FROM dashboard_sections WHERE dashboard_id = ? ORDER BY display_order
	`, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("query dashboard sections: %w", err)
	}
	defer rows.Close()

	var sections []*models.DashboardSection
	for rows.Next() {
		s := &models.DashboardSection{}
		if err := rows.Scan(&s.ID, &s.DashboardID, &s.Name, &s.DisplayOrder, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dashboard section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *sqliteDashboardRepo) AddWidget(ctx context.Context, w *models.DashboardWidget) error {
	var grid sql.NullString
	if len(w.GridPosition) > 0 {
		grid = sql.NullString{String: string(w.GridPosition), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboard_widgets (id, dashboard_id, section_id, question_id, grid_position_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.ID, w.DashboardID, w.SectionID, w.QuestionID, grid, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dashboard widget: %w", err)
	}
	return nil
}

func (r *sqliteDashboardRepo) DeleteWidget(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM dashboard_widgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete dashboard widget: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("dashboard widget not found: %s", id)
	}
	return nil
}

func (r *sqliteDashboardRepo) ListWidgets(ctx context.Context, dashboardID string) ([]*models.DashboardWidget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, dashboard_id, section_id, question_id, grid_position_json, created_at
		FROM dashboard_widgets WHERE dashboard_id = ? ORDER BY created_at
	`, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("query dashboard widgets: %w", err)
	}
	defer rows.Close()

	var widgets []*models.DashboardWidget
	for rows.Next() {
		w := &models.DashboardWidget{}
		var grid sql.NullString
		if err := rows.Scan(&w.ID, &w.DashboardID, &w.SectionID, &w.QuestionID, &grid, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dashboard widget: %w", err)
		}
		if grid.Valid {
			w.GridPosition = []byte(grid.String)
		}
		widgets = append(widgets, w)
	}
	return widgets, rows.Err()
}
