package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database configuration constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second
)

// Conn is a single open handle to the SQLite store.
//
// Each Conn owns its own underlying sql.DB restricted to one OS-level
// connection, so a Conn is never shared between two holders at once.
// Callers obtain a Conn from a Pool and must not use it after Release.
type Conn struct {
	*sql.DB
	location string
}

// openConn opens a new handle to the database at location.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist
//  2. Opens the database file (creates if not present)
//  3. Enables referential integrity and a busy timeout via pragmas
//  4. Sets appropriate file permissions (0600)
//  5. Verifies the connection with a ping
func openConn(location string, busyTimeout int) (*Conn, error) {
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Pragmas ride on the connection string.
	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		location,
		busyTimeout*msPerSecond,
	)

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One OS connection per handle: the Pool does the lending, not sql.DB.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	conn := &Conn{
		DB:       sqlDB,
		location: location,
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	// Owner read/write only. Ignore error - file might not exist yet on
	// first run, permissions will apply after the first write.
	_ = os.Chmod(location, filePermissions) //nolint:errcheck // Intentional: first run creates file later

	return conn, nil
}

// Close closes the handle.
func (c *Conn) Close() error {
	if c.DB == nil {
		return nil
	}
	if err := c.DB.Close(); err != nil {
		return fmt.Errorf("closing database handle: %w", err)
	}
	return nil
}

// Location returns the filesystem path this handle is bound to.
func (c *Conn) Location() string {
	return c.location
}

// HealthCheck verifies the handle is accessible and functioning.
func (c *Conn) HealthCheck(ctx context.Context) error {
	var result int
	err := c.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// BeginTx starts a new transaction with the given options.
// Always use transactions for operations that modify rows.
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := c.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
