package database

import (
	"context"
	_ "embed"
	"fmt"
)

// schemaSQL is the complete persisted schema, compiled into the binary so
// initialisation never depends on files being present on disk.
//
//go:embed schema.sql
var schemaSQL string

// Initialize creates the persisted schema at the pool's location.
//
// Every statement is "create if absent", so calling Initialize on an
// already-initialised database is a no-op with no data loss. A failure
// here is fatal to the caller: it is reported, not retried.
func (p *Pool) Initialize(ctx context.Context) error {
	conn, err := p.Acquire()
	if err != nil {
		return fmt.Errorf("initialising schema: %w", err)
	}
	defer p.Release(conn)

	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("initialising schema: %w", err)
	}
	return nil
}
