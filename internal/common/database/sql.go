// internal/common/database/sql.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"engagement-letters/internal/common/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLClient wraps a sqlx handle together with the driver it was opened with.
type SQLClient struct {
	DB     *sqlx.DB
	Driver string
}

// NewPostgres opens a pooled PostgreSQL connection.
func NewPostgres(cfg config.PostgresConfig) (*SQLClient, error) {
	db, err := sqlx.Open(DriverPostgres, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLClient{DB: db, Driver: DriverPostgres}, nil
}

// NewSQLite opens a SQLite database file through the pure-Go driver.
func NewSQLite(path string) (*SQLClient, error) {
	db, err := sqlx.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &SQLClient{DB: db, Driver: DriverSQLite}, nil
}

// NewSQLFromDB wraps an existing *sql.DB, e.g. one from sqlmock.
func NewSQLFromDB(db *sql.DB, driver string) *SQLClient {
	return &SQLClient{DB: sqlx.NewDb(db, driver), Driver: driver}
}

// OpenSQL opens whichever driver cfg selects.
func OpenSQL(driver string, cfg config.DatabaseConfig, fallbackPath string) (*SQLClient, error) {
	switch driver {
	case DriverPostgres:
		return NewPostgres(cfg.Postgres)
	case DriverSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = fallbackPath
		}
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// Ping tests the database connection
func (c *SQLClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
