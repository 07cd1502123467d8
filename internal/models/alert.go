// Package models defines domain models for SlateDeck.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Operator is the comparison applied between a query's scalar result and
// the configured threshold.
type Operator string

const (
	OperatorLessThan    Operator = "less_than"
	OperatorGreaterThan Operator = "greater_than"
	OperatorEqualTo     Operator = "equal_to"
)

// Valid reports whether the operator is one of the known comparisons.
func (o Operator) Valid() bool {
	switch o {
	case OperatorLessThan, OperatorGreaterThan, OperatorEqualTo:
		return true
	default:
		return false
	}
}

// Alert is a user-defined monitoring rule: a query paired with a threshold
// condition and a webhook destination.
type Alert struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// QuestionID references a saved question whose query is monitored.
	// Query embeds the SQL directly. Exactly one of the two is set.
	QuestionID string `json:"question_id,omitempty"`
	Query      string `json:"query,omitempty"`

	ThresholdOperator Operator `json:"threshold_operator"`
	ThresholdValue    float64  `json:"threshold_value"`
	WebhookURL        string   `json:"webhook_url"`
	IsActive          bool     `json:"is_active"`
	CheckFrequency    string   `json:"check_frequency"`
	UserID            string   `json:"user_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAlert creates a new Alert with initialized timestamps.
func NewAlert(name string) *Alert {
	now := time.Now()
	return &Alert{
		Name:           name,
		IsActive:       true,
		CheckFrequency: FrequencyDaily,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Frequency presets.
const (
	FrequencyHourly = "hourly"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// customFrequencyPrefix marks a frequency stored as a JSON component set.
const customFrequencyPrefix = "custom:"

// Frequency is a parsed check cadence: either a preset or a custom set of
// non-negative day/hour/minute/second components.
type Frequency struct {
	Preset string `json:"-"`

	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// ParseFrequency parses a stored check_frequency value. Presets are
// "hourly", "daily" and "weekly"; custom cadences are stored as
// `custom:{"days":0,"hours":1,"minutes":0,"seconds":0}`.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return Frequency{Preset: s}, nil
	}

	if !strings.HasPrefix(s, customFrequencyPrefix) {
		return Frequency{}, fmt.Errorf("unknown check frequency %q", s)
	}

	var f Frequency
	if err := json.Unmarshal([]byte(strings.TrimPrefix(s, customFrequencyPrefix)), &f); err != nil {
		return Frequency{}, fmt.Errorf("parse custom frequency: %w", err)
	}
	if err := f.validateComponents(); err != nil {
		return Frequency{}, err
	}
	return f, nil
}

func (f Frequency) validateComponents() error {
	if f.Days < 0 || f.Hours < 0 || f.Minutes < 0 || f.Seconds < 0 {
		return errors.New("frequency components must be non-negative")
	}
	if f.Days == 0 && f.Hours == 0 && f.Minutes == 0 && f.Seconds == 0 {
		return errors.New("at least one frequency component must be positive")
	}
	return nil
}

// Interval returns the cadence as a duration.
func (f Frequency) Interval() time.Duration {
	switch f.Preset {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	}
	return time.Duration(f.Days)*24*time.Hour +
		time.Duration(f.Hours)*time.Hour +
		time.Duration(f.Minutes)*time.Minute +
		time.Duration(f.Seconds)*time.Second
}

// String returns the stored form of the frequency.
func (f Frequency) String() string {
	if f.Preset != "" {
		return f.Preset
	}
	data, _ := json.Marshal(f)
	return customFrequencyPrefix + string(data)
}
