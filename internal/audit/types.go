package audit

import (
	"strings"
	"time"
)

// RunStatus is the overall status stored on a run record.
type RunStatus string

// Run status values. A run starts IN_PROGRESS and is finalised exactly
// once to PASS or FAIL.
const (
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusPass       RunStatus = "PASS"
	RunStatusFail       RunStatus = "FAIL"
)

// SectionStatus is the lifecycle status stored on a section record.
// It is binary and does not encode pass/fail, which is derived from findings.
type SectionStatus string

// Section status values.
const (
	SectionStatusInProgress SectionStatus = "in_progress"
	SectionStatusComplete   SectionStatus = "complete"
)

// Well-known finding severities. Severity is free-form text at the storage
// layer; only ERROR and WARNING participate in the failure rule.
const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
	SeverityHigh    = "HIGH"
	SeverityMedium  = "MEDIUM"
	SeverityLow     = "LOW"
	SeverityInfo    = "INFO"
)

// Run is one complete execution of the audit sequence.
type Run struct {
	ID              int64             `json:"id"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Domain          string            `json:"domain,omitempty"`
	CLIArgs         map[string]string `json:"cli_args,omitempty"`
	SkippedServices []string          `json:"skipped_services,omitempty"`
	OverallStatus   RunStatus         `json:"overall_status"`
	Sections        []Section         `json:"sections"`
}

// Section is one named check within a run.
type Section struct {
	ID              int64         `json:"id"`
	RunID           int64         `json:"run_id"`
	Name            string        `json:"name"`
	Status          SectionStatus `json:"status"`
	DurationSeconds *float64      `json:"duration_s,omitempty"`
	Findings        []Finding     `json:"findings"`
	Stats           []Stat        `json:"stats"`
}

// Finding is a single reported issue with a severity and message.
type Finding struct {
	ID        int64  `json:"id"`
	SectionID int64  `json:"section_id"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// Stat is a single named metric recorded for a section. Values are stored
// as strings even when semantically numeric or boolean.
type Stat struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RawObject is an opaque payload captured by a check. The core does not
// interpret or enforce any schema on the data.
type RawObject struct {
	ID        int64  `json:"id"`
	SectionID int64  `json:"section_id"`
	Data      []byte `json:"data"`
}

// FailingSeverity reports whether a finding severity counts as a failure.
// The comparison is case-insensitive against ERROR and WARNING.
func FailingSeverity(severity string) bool {
	return strings.EqualFold(severity, SeverityError) ||
		strings.EqualFold(severity, SeverityWarning)
}

// Failed derives the pass/fail status of a section from its findings.
// A section fails iff at least one finding has a failing severity.
func (s Section) Failed() bool {
	for _, f := range s.Findings {
		if FailingSeverity(f.Severity) {
			return true
		}
	}
	return false
}

// DeriveStatus computes the overall run status from a set of sections:
// PASS iff no section fails.
func DeriveStatus(sections []Section) RunStatus {
	for _, s := range sections {
		if s.Failed() {
			return RunStatusFail
		}
	}
	return RunStatusPass
}
