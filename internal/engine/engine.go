package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/gaudit-core/internal/audit"
	"github.com/nerrad567/gaudit-core/internal/infrastructure/logging"
)

// Runner drives the fixed audit sequence against the store.
//
// Sections execute strictly sequentially: there is no parallel execution,
// no suspension within a check, and no cross-section ordering ambiguity.
// Writes therefore reach the store from a single goroutine; running the
// whole audit off the caller's goroutine is fine, running two audits
// against the same location concurrently is not.
type Runner struct {
	store    *audit.Store
	env      Environment
	log      *logging.Logger
	sections []SectionSpec
}

// NewRunner creates a Runner over the fixed section sequence.
func NewRunner(store *audit.Store, env Environment, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Default()
	}
	return &Runner{
		store:    store,
		env:      env,
		log:      log.With("component", "engine"),
		sections: Sections(),
	}
}

// Run executes the full audit sequence and returns the aggregated report.
//
// Algorithm: create a run; for each section in declared order start the
// section, invoke its check, persist every finding/stat/raw snapshot, and
// complete the section; finally derive the overall status (PASS iff no
// section failed) and finalize the run.
//
// A check that returns an error or an invalid bundle is contained: the
// failure is recorded as an ERROR finding on that section, the section
// completes, and the sequence continues. Only storage failures abort the
// run, leaving it unfinalized.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	token := uuid.NewString()
	log := r.log.With("run_token", token)

	runID, err := r.store.CreateRun(ctx, audit.CreateRunOptions{
		Domain:          r.env.Domain,
		CLIArgs:         r.env.CLIArgs,
		SkippedServices: r.env.SkippedServices,
	})
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	log.Info("audit run started", "run_id", runID, "sections", len(r.sections))

	report := &Report{
		RunID:    runID,
		Token:    token,
		Sections: make([]SectionOutcome, 0, len(r.sections)),
	}

	failed := false
	for _, spec := range r.sections {
		outcome, err := r.runSection(ctx, log, runID, spec)
		if err != nil {
			return report, err
		}
		if !outcome.Passed {
			failed = true
		}
		report.Sections = append(report.Sections, outcome)
	}

	status := audit.RunStatusPass
	if failed {
		status = audit.RunStatusFail
	}
	if err := r.store.FinalizeRun(ctx, runID, status); err != nil {
		return report, fmt.Errorf("finalizing run %d: %w", runID, err)
	}
	report.OverallStatus = status

	log.Info("audit run finished", "run_id", runID, "overall_status", string(status))
	return report, nil
}

// runSection executes one section end to end: start, check, persist,
// complete. Check failures are contained here; only storage errors
// propagate.
func (r *Runner) runSection(ctx context.Context, log *logging.Logger, runID int64, spec SectionSpec) (SectionOutcome, error) {
	outcome := SectionOutcome{Name: spec.Name, Passed: true}

	sectionID, err := r.store.StartSection(ctx, runID, spec.Name)
	if err != nil {
		return outcome, fmt.Errorf("starting section %q: %w", spec.Name, err)
	}
	outcome.SectionID = sectionID

	result, checkErr := spec.Check(ctx, r.env)
	if checkErr == nil {
		checkErr = result.Validate()
	}

	if checkErr != nil {
		// Contain the failure: the section is marked failed via a
		// synthetic ERROR finding and the sequence continues.
		log.Warn("check failed", "section", spec.Name, "section_id", sectionID, "error", checkErr)
		outcome.Passed = false
		outcome.CheckErr = checkErr
		outcome.Findings = 1
		msg := fmt.Sprintf("check failed: %v", checkErr)
		if err := r.store.InsertFinding(ctx, sectionID, audit.SeverityError, msg); err != nil {
			return outcome, fmt.Errorf("recording check failure for %q: %w", spec.Name, err)
		}
	} else {
		if err := r.persistResult(ctx, sectionID, result); err != nil {
			return outcome, fmt.Errorf("persisting section %q: %w", spec.Name, err)
		}
		outcome.Findings = len(result.Findings)
		outcome.Stats = len(result.Stats)
		for _, f := range result.Findings {
			if audit.FailingSeverity(f.Severity) {
				outcome.Passed = false
				break
			}
		}
	}

	if err := r.store.CompleteSection(ctx, sectionID); err != nil {
		return outcome, fmt.Errorf("completing section %q: %w", spec.Name, err)
	}

	log.Info("section complete",
		"section", spec.Name,
		"section_id", sectionID,
		"passed", outcome.Passed,
		"findings", outcome.Findings,
	)
	return outcome, nil
}

// persistResult writes a validated bundle through the transactional writer,
// preserving finding, stat and snapshot order.
func (r *Runner) persistResult(ctx context.Context, sectionID int64, result *Result) error {
	for _, f := range result.Findings {
		if err := r.store.InsertFinding(ctx, sectionID, f.Severity, f.Message); err != nil {
			return err
		}
	}
	for _, s := range result.Stats {
		if err := r.store.InsertStat(ctx, sectionID, s.Key, s.Value); err != nil {
			return err
		}
	}
	for _, raw := range result.Raw {
		if err := r.store.InsertRaw(ctx, sectionID, raw); err != nil {
			return err
		}
	}
	return nil
}
