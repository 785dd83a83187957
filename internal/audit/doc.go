// Package audit is the persistence and lifecycle engine for audit runs.
//
// A run is an ordered sequence of named sections, each with explicit
// start/complete timestamps and findings, stats and raw snapshots recorded
// against it. This package owns:
//
//   - Store: the transactional writer. Every mutating operation validates
//     its inputs before any I/O, executes exactly one logical write inside
//     a transaction on a pooled handle, and rolls back on failure.
//   - Tracker: the in-memory start-time table mapping an open section id
//     to its monotonic start instant, used to derive durations.
//   - Reader: the read-side aggregator reconstructing the full
//     run → sections → findings/stats tree for reporting consumers.
//
// # Status derivation
//
// Section status is binary (in_progress/complete) and never encodes
// pass/fail. A section fails iff any of its findings has severity ERROR or
// WARNING, compared case-insensitively; the overall run status is PASS iff
// no section fails. Derivation happens on the caller/read side and is
// never stored redundantly.
//
// # Error taxonomy
//
//   - ErrInvalidArgument: malformed identifiers or empty required strings,
//     rejected before any I/O.
//   - *StorageError: persistence-layer failure during a write; the
//     transaction was rolled back and the cause is wrapped.
//   - Missing runs/sections on the read side return empty results, not
//     errors.
package audit
