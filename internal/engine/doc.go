// Package engine orchestrates the fixed ten-section audit sequence.
//
// The Runner creates a run, executes each section's check in declared
// order, persists the resulting findings/stats/raw snapshots through the
// audit.Store, and finalizes the run with a derived PASS/FAIL status.
//
// Check functions are treated as opaque capabilities returning a tagged
// Result bundle that is validated at the boundary before persistence.
// A failing or misbehaving check does not abort the sequence: the failure
// is recorded as an ERROR finding on its section and the remaining
// sections still run. The current checks are stubs that synthesize
// findings from configuration; the real security checks plug in through
// the same CheckFunc contract.
package engine
