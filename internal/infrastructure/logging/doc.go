// Package logging provides structured logging for GAudit Core.
//
// It wraps the standard library's log/slog with configuration-driven
// level filtering, JSON or text output, and default service fields.
// Every transactional write that rolls back is logged through this
// package with the operation name and offending identifier, so storage
// failures can be diagnosed without opening the database.
package logging
