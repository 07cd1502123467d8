package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	// Addresses are the ClickHouse server addresses (host:port).
	Addresses []string

	// Database is the ClickHouse database name.
	Database string

	// Username for authentication. The configured user should be
	// restricted to read-only access; the executor does not inspect
	// the submitted SQL.
	Username string

	// Password for authentication.
	Password string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// DialTimeout is the connection timeout.
	DialTimeout time.Duration

	// QueryTimeout bounds each Execute call.
	QueryTimeout time.Duration

	// Compression enables LZ4 compression.
	Compression bool
}

// ClickHouseExecutor implements Executor against ClickHouse.
type ClickHouseExecutor struct {
	config *ClickHouseConfig
	db     *sql.DB
}

// NewClickHouseExecutor creates a new ClickHouse executor.
func NewClickHouseExecutor(config *ClickHouseConfig) *ClickHouseExecutor {
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 5
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 5
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = 30 * time.Second
	}

	return &ClickHouseExecutor{config: config}
}

// Open initializes the ClickHouse connection.
func (e *ClickHouseExecutor) Open() error {
	opts := &clickhouse.Options{
		Addr: e.config.Addresses,
		Auth: clickhouse.Auth{
			Database: e.config.Database,
			Username: e.config.Username,
			Password: e.config.Password,
		},
		DialTimeout:  e.config.DialTimeout,
		MaxOpenConns: e.config.MaxOpenConns,
		MaxIdleConns: e.config.MaxIdleConns,
	}

	if e.config.Compression {
		opts.Compression = &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		}
	}

	db := clickhouse.OpenDB(opts)

	ctx, cancel := context.WithTimeout(context.Background(), e.config.DialTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping clickhouse: %w", err)
	}

	e.db = db
	return nil
}

// Close closes the database connection.
func (e *ClickHouseExecutor) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Ping checks the connection health.
func (e *ClickHouseExecutor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// Execute runs an ad-hoc query and returns all columns and rows.
// Execution is bounded by the configured query timeout.
func (e *ClickHouseExecutor) Execute(ctx context.Context, sqlText string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.QueryTimeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}
