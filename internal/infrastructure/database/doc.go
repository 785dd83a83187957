// Package database provides SQLite connectivity for GAudit Core.
//
// This package manages:
//   - Individual handles (Conn) with referential integrity enforced
//   - A bounded LIFO pool of reusable handles per storage location
//   - Idempotent schema initialisation for the five audit tables
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Pooling model:
//
// A Pool is constructed once per storage location and the location never
// changes afterwards. Acquire pops the most recently released idle handle
// or opens a new one; Release pushes the handle back, closing it when the
// pool already holds its capacity of idle handles. Lend/return is advisory
// within a single process: a released handle must not be touched again by
// the releasing caller.
//
// Usage:
//
//	pool, err := database.NewPool(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pool.Initialize(ctx); err != nil {
//	    return err
//	}
package database
