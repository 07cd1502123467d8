// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"

	"github.com/slatedeck/slatedeck/internal/models"
)

// Storage is the main interface for metadata store operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Alerts() AlertRepository
	AlertLogs() AlertLogRepository
	Questions() QuestionRepository
	Dashboards() DashboardRepository
	Collections() CollectionRepository
}

// AlertRepository defines operations for alert management.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	Update(ctx context.Context, alert *models.Alert) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Alert, error)
	// ListActive returns every active alert with its query text resolved:
	// alerts referencing a saved question get the question's query.
	ListActive(ctx context.Context) ([]*models.Alert, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// AlertLogRepository defines operations for the alert audit log.
// Rows are insert-only; retention is an external concern.
type AlertLogRepository interface {
	Create(ctx context.Context, entry *models.AlertLog) error
	List(ctx context.Context, limit, offset int) ([]*models.AlertLog, int64, error)
	ListByAlert(ctx context.Context, alertID string, limit, offset int) ([]*models.AlertLog, int64, error)
}

// QuestionRepository defines operations for saved questions.
type QuestionRepository interface {
	Create(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	Update(ctx context.Context, q *models.Question) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Question, error)
}

// DashboardRepository defines operations for dashboards, their sections
// and widgets.
type DashboardRepository interface {
	Create(ctx context.Context, d *models.Dashboard) error
	GetByID(ctx context.Context, id string) (*models.Dashboard, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Dashboard, error)

	AddSection(ctx context.Context, s *models.DashboardSection) error
	DeleteSection(ctx context.Context, id string) error
	ListSections(ctx context.Context, dashboardID string) ([]*models.DashboardSection, error)

	AddWidget(ctx context.Context, w *models.DashboardWidget) error
	DeleteWidget(ctx context.Context, id string) error
	ListWidgets(ctx context.Context, dashboardID string) ([]*models.DashboardWidget, error)
}

// CollectionRepository defines operations for collections and their
// question/dashboard membership.
type CollectionRepository interface {
	Create(ctx context.Context, c *models.Collection) error
	GetByID(ctx context.Context, id string) (*models.Collection, error)
	Update(ctx context.Context, c *models.Collection) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Collection, error)

	AddQuestion(ctx context.Context, collectionID, questionID string) error
	RemoveQuestion(ctx context.Context, collectionID, questionID string) error
	ListQuestions(ctx context.Context, collectionID string) ([]*models.Question, error)

	AddDashboard(ctx context.Context, collectionID, dashboardID string) error
	RemoveDashboard(ctx context.Context, collectionID, dashboardID string) error
	ListDashboards(ctx context.Context, collectionID string) ([]*models.Dashboard, error)
}
