package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gaudit-core/internal/audit"
)

// Environment is the configuration slice handed to check functions.
// Checks synthesize their findings and stats from it; they perform no I/O.
type Environment struct {
	// Domain is the workspace domain under audit, if known.
	Domain string

	// APIServices lists the API surfaces credentials are expected to cover.
	APIServices []string

	// SkippedServices lists services intentionally excluded from this run.
	SkippedServices []string

	// CLIArgs records the invocation arguments for the run record.
	CLIArgs map[string]string
}

// HasService reports whether a service is available to checks: listed in
// APIServices and not intentionally skipped.
func (e Environment) HasService(name string) bool {
	for _, skipped := range e.SkippedServices {
		if strings.EqualFold(skipped, name) {
			return false
		}
	}
	for _, svc := range e.APIServices {
		if strings.EqualFold(svc, name) {
			return true
		}
	}
	return false
}

// FindingInput is one finding produced by a check, before persistence.
type FindingInput struct {
	Severity string
	Message  string
}

// StatInput is one named metric produced by a check. Order is preserved
// through persistence, so a slice rather than a map.
type StatInput struct {
	Key   string
	Value string
}

// Result is the tagged bundle a check function returns: a name plus
// ordered findings, stats and optional raw snapshots.
type Result struct {
	Name     string
	Findings []FindingInput
	Stats    []StatInput
	Raw      [][]byte
}

// Validate checks the bundle at the boundary before it reaches the writer,
// so a misbehaving check is rejected as a whole rather than failing
// halfway through persistence.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("result name is empty")
	}
	for i, f := range r.Findings {
		if strings.TrimSpace(f.Severity) == "" {
			return fmt.Errorf("finding %d: severity is empty", i)
		}
		if strings.TrimSpace(f.Message) == "" {
			return fmt.Errorf("finding %d: message is empty", i)
		}
	}
	for i, s := range r.Stats {
		if strings.TrimSpace(s.Key) == "" {
			return fmt.Errorf("stat %d: key is empty", i)
		}
	}
	return nil
}

// CheckFunc is the contract for an audit section's check. Implementations
// run to completion or return an error; the runner contains failures and
// continues the sequence.
type CheckFunc func(ctx context.Context, env Environment) (*Result, error)

// SectionSpec pairs a declared section name with its check.
type SectionSpec struct {
	Name  string
	Check CheckFunc
}

// SectionOutcome summarises one executed section for the final report.
type SectionOutcome struct {
	SectionID int64  `json:"section_id"`
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Findings  int    `json:"findings"`
	Stats     int    `json:"stats"`

	// CheckErr is the contained error from a failed check, if any. The
	// section still completes; the failure is recorded as an ERROR finding.
	CheckErr error `json:"-"`
}

// Report is the aggregate result of one orchestrated audit.
type Report struct {
	RunID         int64            `json:"run_id"`
	Token         string           `json:"token"`
	OverallStatus audit.RunStatus  `json:"overall_status"`
	Sections      []SectionOutcome `json:"sections"`
}
