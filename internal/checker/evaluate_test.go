package checker

import (
	"testing"

	"github.com/slatedeck/slatedeck/internal/models"
	"github.com/slatedeck/slatedeck/internal/query"
)

func TestExtractScalar(t *testing.T) {
	tests := []struct {
		name   string
		result *query.Result
		want   float64
	}{
		{
			name:   "nil result",
			result: nil,
			want:   0,
		},
		{
			name:   "empty result",
			result: &query.Result{Columns: []string{"count"}, Rows: [][]any{}},
			want:   0,
		},
		{
			name: "plain number",
			result: &query.Result{
				Columns: []string{"count"},
				Rows:    [][]any{{float64(42)}},
			},
			want: 42,
		},
		{
			name: "first column of first row only",
			result: &query.Result{
				Columns: []string{"a", "b"},
				Rows:    [][]any{{float64(7), float64(99)}, {float64(100), float64(100)}},
			},
			want: 7,
		},
		{
			name: "integer value",
			result: &query.Result{
				Columns: []string{"n"},
				Rows:    [][]any{{int64(13)}},
			},
			want: 13,
		},
		{
			name: "numeric string",
			result: &query.Result{
				Columns: []string{"n"},
				Rows:    [][]any{{"3.5"}},
			},
			want: 3.5,
		},
		{
			name: "non-numeric string",
			result: &query.Result{
				Columns: []string{"n"},
				Rows:    [][]any{{"not a number"}},
			},
			want: 0,
		},
		{
			name: "null value",
			result: &query.Result{
				Columns: []string{"n"},
				Rows:    [][]any{{nil}},
			},
			want: 0,
		},
		{
			name: "boolean true",
			result: &query.Result{
				Columns: []string{"n"},
				Rows:    [][]any{{true}},
			},
			want: 1,
		},
		{
			name: "wrapped result column with scalar",
			result: &query.Result{
				Columns: []string{"result"},
				Rows:    [][]any{{"17"}},
			},
			want: 17,
		},
		{
			name: "wrapped result column with JSON array",
			result: &query.Result{
				Columns: []string{"result"},
				Rows:    [][]any{{`[{"count": 8}]`}},
			},
			want: 8,
		},
		{
			name: "wrapped result column with JSON object",
			result: &query.Result{
				Columns: []string{"result"},
				Rows:    [][]any{{`{"total": 21}`}},
			},
			want: 21,
		},
		{
			name: "wrapped result with multi-key object",
			result: &query.Result{
				Columns: []string{"result"},
				Rows:    [][]any{{`{"a": 1, "b": 2}`}},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractScalar(tt.result)
			if got != tt.want {
				t.Errorf("extractScalar() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"nil", nil, 0},
		{"float64", float64(1.5), 1.5},
		{"float32", float32(2), 2},
		{"int", int(3), 3},
		{"int64", int64(4), 4},
		{"uint64", uint64(5), 5},
		{"string", "6.25", 6.25},
		{"string with spaces", "  7 ", 7},
		{"bytes", []byte("8"), 8},
		{"bool false", false, 0},
		{"garbage string", "abc", 0},
		{"pointer to float", func() any { f := 9.0; return &f }(), 9},
		{"nil pointer", (*float64)(nil), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coerceNumber(tt.value)
			if got != tt.want {
				t.Errorf("coerceNumber(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestConditionMet(t *testing.T) {
	tests := []struct {
		name      string
		op        models.Operator
		actual    float64
		threshold float64
		want      bool
	}{
		{"less than true", models.OperatorLessThan, 5, 10, true},
		{"less than false", models.OperatorLessThan, 10, 5, false},
		{"less than equal values", models.OperatorLessThan, 5, 5, false},
		{"greater than true", models.OperatorGreaterThan, 10, 5, true},
		{"greater than false", models.OperatorGreaterThan, 5, 10, false},
		{"greater than equal values", models.OperatorGreaterThan, 5, 5, false},
		{"equal exact", models.OperatorEqualTo, 5, 5, true},
		{"equal within epsilon", models.OperatorEqualTo, 0.1 + 0.2, 0.3, true},
		{"equal far apart", models.OperatorEqualTo, 5, 5.1, false},
		{"unknown operator", models.Operator("between"), 5, 5, false},
		{"empty operator", models.Operator(""), 5, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := conditionMet(tt.op, tt.actual, tt.threshold)
			if got != tt.want {
				t.Errorf("conditionMet(%q, %v, %v) = %v, want %v",
					tt.op, tt.actual, tt.threshold, got, tt.want)
			}
		})
	}
}
