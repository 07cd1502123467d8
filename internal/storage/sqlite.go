package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path string
	db   *sql.DB

	alerts      *sqliteAlertRepo
	alertLogs   *sqliteAlertLogRepo
	questions   *sqliteQuestionRepo
	dashboards  *sqliteDashboardRepo
	collections *sqliteCollectionRepo
}

// NewSQLiteStorage creates a new SQLite storage at the given path.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", s.path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s.db = db

	s.alerts = &sqliteAlertRepo{db: db}
	s.alertLogs = &sqliteAlertLogRepo{db: db}
	s.questions = &sqliteQuestionRepo{db: db}
	s.dashboards = &sqliteDashboardRepo{db: db}
	s.collections = &sqliteCollectionRepo{db: db}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// Alerts returns the alert repository.
func (s *SQLiteStorage) Alerts() AlertRepository {
	return s.alerts
}

// AlertLogs returns the alert log repository.
func (s *SQLiteStorage) AlertLogs() AlertLogRepository {
	return s.alertLogs
}

// Questions returns the question repository.
func (s *SQLiteStorage) Questions() QuestionRepository {
	return s.questions
}

// Dashboards returns the dashboard repository.
func (s *SQLiteStorage) Dashboards() DashboardRepository {
	return s.dashboards
}

// Collections returns the collection repository.
func (s *SQLiteStorage) Collections() CollectionRepository {
	return s.collections
}

// Helper functions shared by the sqlite repositories.

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
