package models

import (
	"strings"
	"testing"
	"time"
)

func TestOperatorValid(t *testing.T) {
	tests := []struct {
		op    Operator
		valid bool
	}{
		{OperatorLessThan, true},
		{OperatorGreaterThan, true},
		{OperatorEqualTo, true},
		{Operator("between"), false},
		{Operator(""), false},
	}

	for _, tt := range tests {
		if got := tt.op.Valid(); got != tt.valid {
			t.Errorf("Operator(%q).Valid() = %v, want %v", tt.op, got, tt.valid)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  string
		interval time.Duration
	}{
		{
			name:     "hourly preset",
			input:    "hourly",
			interval: time.Hour,
		},
		{
			name:     "daily preset",
			input:    "daily",
			interval: 24 * time.Hour,
		},
		{
			name:     "weekly preset",
			input:    "weekly",
			interval: 7 * 24 * time.Hour,
		},
		{
			name:     "custom one hour",
			input:    `custom:{"days":0,"hours":1,"minutes":0,"seconds":0}`,
			interval: time.Hour,
		},
		{
			name:     "custom mixed components",
			input:    `custom:{"days":1,"hours":2,"minutes":30,"seconds":15}`,
			interval: 26*time.Hour + 30*time.Minute + 15*time.Second,
		},
		{
			name:    "unknown preset",
			input:   "fortnightly",
			wantErr: "unknown check frequency",
		},
		{
			name:    "custom all zero",
			input:   `custom:{"days":0,"hours":0,"minutes":0,"seconds":0}`,
			wantErr: "at least one frequency component must be positive",
		},
		{
			name:    "custom negative component",
			input:   `custom:{"days":-1,"hours":1,"minutes":0,"seconds":0}`,
			wantErr: "must be non-negative",
		},
		{
			name:    "custom malformed JSON",
			input:   `custom:{days:1}`,
			wantErr: "parse custom frequency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrequency(tt.input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %q", tt.wantErr, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := f.Interval(); got != tt.interval {
				t.Errorf("Interval() = %v, want %v", got, tt.interval)
			}
		})
	}
}

func TestFrequencyString(t *testing.T) {
	f, err := ParseFrequency("daily")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.String(); got != "daily" {
		t.Errorf("String() = %q, want %q", got, "daily")
	}

	custom := `custom:{"days":0,"hours":1,"minutes":0,"seconds":0}`
	f, err = ParseFrequency(custom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	round, err := ParseFrequency(f.String())
	if err != nil {
		t.Fatalf("round-trip parse failed: %v", err)
	}
	if round.Interval() != time.Hour {
		t.Errorf("round-trip Interval() = %v, want %v", round.Interval(), time.Hour)
	}
}

func TestNewAlertDefaults(t *testing.T) {
	a := NewAlert("low-signups")
	if !a.IsActive {
		t.Error("new alert should be active")
	}
	if a.CheckFrequency != FrequencyDaily {
		t.Errorf("CheckFrequency = %q, want %q", a.CheckFrequency, FrequencyDaily)
	}
	if a.CreatedAt.IsZero() || a.UpdatedAt.IsZero() {
		t.Error("timestamps should be initialized")
	}
}
