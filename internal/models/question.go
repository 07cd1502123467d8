package models

import "time"

// VisualizationType is how a question's result is rendered by the UI.
type VisualizationType string

const (
	VisualizationTable  VisualizationType = "table"
	VisualizationNumber VisualizationType = "number"
	VisualizationLine   VisualizationType = "line"
	VisualizationBar    VisualizationType = "bar"
	VisualizationPie    VisualizationType = "pie"
)

// ParseVisualizationType converts a string to VisualizationType,
// defaulting to table.
func ParseVisualizationType(s string) VisualizationType {
	switch s {
	case "table", "number", "line", "bar", "pie":
		return VisualizationType(s)
	default:
		return VisualizationTable
	}
}

// Question is a saved, named SQL query with an associated visualization.
type Question struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Query             string            `json:"query"`
	VisualizationType VisualizationType `json:"visualization_type"`
	CreatedAt         time.Time         `json:"created_at"`
}
