package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Saved questions (named SQL queries with a visualization)
			CREATE TABLE IF NOT EXISTS questions (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				query TEXT NOT NULL,
				visualization_type TEXT NOT NULL DEFAULT 'table',
				created_at DATETIME NOT NULL
			);

			-- Dashboards
			CREATE TABLE IF NOT EXISTS dashboards (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT,
				user_id TEXT,
				created_at DATETIME NOT NULL
			);

			CREATE TABLE IF NOT EXISTS dashboard_sections (
				id TEXT PRIMARY KEY,
				dashboard_id TEXT NOT NULL,
				name TEXT NOT NULL,
				display_order INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (dashboard_id) REFERENCES dashboards(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS dashboard_widgets (
				id TEXT PRIMARY KEY,
				dashboard_id TEXT NOT NULL,
				section_id TEXT NOT NULL,
				question_id TEXT NOT NULL,
				grid_position_json TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (dashboard_id) REFERENCES dashboards(id) ON DELETE CASCADE,
				FOREIGN KEY (section_id) REFERENCES dashboard_sections(id) ON DELETE CASCADE,
				FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
			);

			-- Collections and membership
			CREATE TABLE IF NOT EXISTS collections (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT,
				user_id TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			CREATE TABLE IF NOT EXISTS collection_questions (
				id TEXT PRIMARY KEY,
				collection_id TEXT NOT NULL,
				question_id TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				UNIQUE (collection_id, question_id),
				FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
				FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS collection_dashboards (
				id TEXT PRIMARY KEY,
				collection_id TEXT NOT NULL,
				dashboard_id TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				UNIQUE (collection_id, dashboard_id),
				FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
				FOREIGN KEY (dashboard_id) REFERENCES dashboards(id) ON DELETE CASCADE
			);

			-- Alerts
			CREATE TABLE IF NOT EXISTS alerts (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT,
				question_id TEXT,
				query TEXT,
				threshold_operator TEXT NOT NULL,
				threshold_value REAL NOT NULL DEFAULT 0,
				webhook_url TEXT NOT NULL,
				is_active INTEGER NOT NULL DEFAULT 1,
				check_frequency TEXT NOT NULL DEFAULT 'daily',
				user_id TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE SET NULL
			);

			-- Alert audit log (insert-only)
			CREATE TABLE IF NOT EXISTS alert_logs (
				id TEXT PRIMARY KEY,
				alert_id TEXT NOT NULL,
				threshold_value REAL NOT NULL,
				actual_value REAL NOT NULL,
				webhook_response_status INTEGER,
				webhook_response_body TEXT,
				triggered_at DATETIME NOT NULL,
				FOREIGN KEY (alert_id) REFERENCES alerts(id) ON DELETE CASCADE
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(is_active);
			CREATE INDEX IF NOT EXISTS idx_alerts_question ON alerts(question_id);
			CREATE INDEX IF NOT EXISTS idx_alert_logs_alert ON alert_logs(alert_id);
			CREATE INDEX IF NOT EXISTS idx_alert_logs_triggered ON alert_logs(triggered_at);
			CREATE INDEX IF NOT EXISTS idx_sections_dashboard ON dashboard_sections(dashboard_id);
			CREATE INDEX IF NOT EXISTS idx_widgets_dashboard ON dashboard_widgets(dashboard_id);
			CREATE INDEX IF NOT EXISTS idx_coll_questions ON collection_questions(collection_id);
			CREATE INDEX IF NOT EXISTS idx_coll_dashboards ON collection_dashboards(collection_id);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	// Create migrations table if not exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
