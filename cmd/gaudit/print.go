package main

import (
	"fmt"
	"io"

	"github.com/nerrad567/gaudit-core/internal/audit"
	"github.com/nerrad567/gaudit-core/internal/engine"
)

// printReport renders the summary of a just-finished audit.
func printReport(w io.Writer, report *engine.Report) {
	fmt.Fprintf(w, "run %d: %s\n", report.RunID, report.OverallStatus)
	for _, s := range report.Sections {
		fmt.Fprintf(w, "  %-22s %s  (%d findings, %d stats)\n",
			s.Name, passFail(s.Passed), s.Findings, s.Stats)
	}
}

// printRun renders a stored run tree.
func printRun(w io.Writer, run *audit.Run) {
	fmt.Fprintf(w, "run %d  started %s  status %s\n",
		run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.OverallStatus)
	if run.Domain != "" {
		fmt.Fprintf(w, "domain: %s\n", run.Domain)
	}
	if len(run.SkippedServices) > 0 {
		fmt.Fprintf(w, "skipped: %v\n", run.SkippedServices)
	}
	for _, section := range run.Sections {
		status := passFail(!section.Failed())
		duration := "-"
		if section.DurationSeconds != nil {
			duration = fmt.Sprintf("%.2fs", *section.DurationSeconds)
		}
		fmt.Fprintf(w, "  [%d] %-22s %s  %s\n", section.ID, section.Name, status, duration)
		for _, f := range section.Findings {
			fmt.Fprintf(w, "      %-8s %s\n", f.Severity, f.Message)
		}
		for _, s := range section.Stats {
			fmt.Fprintf(w, "      stat %s=%s\n", s.Key, s.Value)
		}
	}
}

func passFail(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
