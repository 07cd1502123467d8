// Package query provides ad-hoc SQL execution against the analytics
// warehouse. The rest of the system treats this as an opaque capability:
// it submits a query string and receives ordered columns and rows.
package query

import "context"

// Result is an ad-hoc query result. Column order is preserved as returned
// by the warehouse; Rows[i][j] corresponds to Columns[j].
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the result has no rows.
func (r *Result) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// Executor runs read-only SQL against the warehouse. Implementations must
// bound execution time; a hung query must not stall the caller forever.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (*Result, error)
	Close() error
}
