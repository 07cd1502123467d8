package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slatedeck/slatedeck/internal/models"
)

type sqliteCollectionRepo struct {
	db *sql.DB
}

func (r *sqliteCollectionRepo) Create(ctx context.Context, c *models.Collection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, description, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, nullString(c.Description), nullString(c.UserID), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

func (r *sqliteCollectionRepo) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, user_id, created_at, updated_at
		FROM collections WHERE id = ?
	`, id)

	c := &models.Collection{}
	var description, userID sql.NullString
	err := row.Scan(&c.ID, &c.Name, &description, &userID, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	c.Description = description.String
	c.UserID = userID.String
	return c, nil
}

func (r *sqliteCollectionRepo) Update(ctx context.Context, c *models.Collection) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE collections SET name = ?, description = ?, updated_at = ? WHERE id = ?
	`, c.Name, nullString(c.Description), c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("collection not found: %s", c.ID)
	}
	return nil
}

func (r *sqliteCollectionRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("collection not found: %s", id)
	}
	return nil
}

func (r *sqliteCollectionRepo) List(ctx context.Context) ([]*models.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, user_id, created_at, updated_at
		FROM collections ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		c := &models.Collection{}
		var description, userID sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &userID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		c.Description = description.String
		c.UserID = userID.String
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (r *sqliteCollectionRepo) AddQuestion(ctx context.Context, collectionID, questionID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collection_questions (id, collection_id, question_id, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.New().String(), collectionID, questionID, time.Now())
	if err != nil {
		return fmt.Errorf("add question to collection: %w", err)
	}
	return nil
}

func (r *sqliteCollectionRepo) RemoveQuestion(ctx context.Context, collectionID, questionID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM collection_questions WHERE collection_id = ? AND question_id = ?",
		collectionID, questionID)
	if err != nil {
		return fmt.Errorf("remove question from collection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("question %s not in collection %s", questionID, collectionID)
	}
	return nil
}

func (r *sqliteCollectionRepo) ListQuestions(ctx context.Context, collectionID string) ([]*models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT q.id, q.name, q.query, q.visualization_type, q.created_at
		FROM questions q
		JOIN collection_questions cq ON cq.question_id = q.id
		WHERE cq.collection_id = ?
		ORDER BY q.name
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("query collection questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *sqliteCollectionRepo) AddDashboard(ctx context.Context, collectionID, dashboardID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collection_dashboards (id, collection_id, dashboard_id, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.New().String(), collectionID, dashboardID, time.Now())
	if err != nil {
		return fmt.Errorf("add dashboard to collection: %w", err)
	}
	return nil
}

func (r *sqliteCollectionRepo) RemoveDashboard(ctx context.Context, collectionID, dashboardID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM collection_dashboards WHERE collection_id = ? AND dashboard_id = ?",
		collectionID, dashboardID)
	if err != nil {
		return fmt.Errorf("remove dashboard from collection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("dashboard %s not in collection %s", dashboardID, collectionID)
	}
	return nil
}

func (r *sqliteCollectionRepo) ListDashboards(ctx context.Context, collectionID string) ([]*models.Dashboard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.description, d.user_id, d.created_at
		FROM dashboards d
		JOIN collection_dashboards cd ON cd.dashboard_id = d.id
		WHERE cd.collection_id = ?
		ORDER BY d.name
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("query collection dashboards: %w", err)
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
