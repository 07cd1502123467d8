package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/slatedeck/slatedeck/internal/models"
)

type sqliteQuestionRepo struct {
	db *sql.DB
}

func (r *sqliteQuestionRepo) Create(ctx context.Context, q *models.Question) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (id, name, query, visualization_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, q.ID, q.Name, q.Query, string(q.VisualizationType), q.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *sqliteQuestionRepo) GetByID(ctx context.Context, id string) (*models.Question, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, query, visualization_type, created_at
		FROM questions WHERE id = ?
	`, id)

	q := &models.Question{}
	var vis string
	err := row.Scan(&q.ID, &q.Name, &q.Query, &vis, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	q.VisualizationType = models.VisualizationType(vis)
	return q, nil
}

func (r *sqliteQuestionRepo) Update(ctx context.Context, q *models.Question) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE questions SET name = ?, query = ?, visualization_type = ? WHERE id = ?
	`, q.Name, q.Query, string(q.VisualizationType), q.ID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("question not found: %s", q.ID)
	}
	return nil
}

func (r *sqliteQuestionRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("question not found: %s", id)
	}
	return nil
}

func (r *sqliteQuestionRepo) List(ctx context.Context) ([]*models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, query, visualization_type, created_at
		FROM questions ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]*models.Question, error) {
	var questions []*models.Question
	for rows.Next() {
		q := &models.Question{}
		var vis string
		if err := rows.Scan(&q.ID, &q.Name, &q.Query, &vis, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.VisualizationType = models.VisualizationType(vis)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
