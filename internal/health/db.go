package health

import (
	"context"
	"database/sql"
	"fmt"
)

// DBChecker implements health checking for SQL databases.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker creates a new database health checker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}
