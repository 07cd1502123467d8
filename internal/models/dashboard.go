package models

import (
	"encoding/json"
	"time"
)

// Dashboard is a named arrangement of question widgets.
type Dashboard struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DashboardSection groups widgets within a dashboard.
type DashboardSection struct {
	ID           string    `json:"id"`
	DashboardID  string    `json:"dashboard_id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// DashboardWidget places a question inside a dashboard section.
// GridPosition is an opaque layout blob owned by the UI.
type DashboardWidget struct {
	ID           string          `json:"id"`
	DashboardID  string          `json:"dashboard_id"`
	SectionID    string          `json:"section_id"`
	QuestionID   string          `json:"question_id"`
	GridPosition json.RawMessage `json:"grid_position,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
