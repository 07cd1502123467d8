package health

import (
	"context"
	"database/sql"
	"fmt"
)

// MetadataChecker checks the SQLite metadata store.
type MetadataChecker struct {
	db *sql.DB
}

// NewMetadataChecker creates a health checker for the metadata store.
func NewMetadataChecker(db *sql.DB) *MetadataChecker {
	return &MetadataChecker{db: db}
}

// Name returns the checker name.
func (c *MetadataChecker) Name() string {
	return "metadata"
}

// Check verifies the metadata database is accessible.
func (c *MetadataChecker) Check(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.db.PingContext(ctx)
}

// Pinger is implemented by warehouse connections that support ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WarehouseChecker checks warehouse connectivity.
type WarehouseChecker struct {
	pinger Pinger
}

// NewWarehouseChecker creates a health checker for the query warehouse.
func NewWarehouseChecker(p Pinger) *WarehouseChecker {
	return &WarehouseChecker{pinger: p}
}

// Name returns the checker name.
func (c *WarehouseChecker) Name() string {
	return "warehouse"
}

// Check verifies the warehouse is accessible.
func (c *WarehouseChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("warehouse not configured")
	}
	return c.pinger.Ping(ctx)
}
