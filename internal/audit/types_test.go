package audit

import "testing"

func TestFailingSeverity(t *testing.T) {
	cases := []struct {
		severity string
		want     bool
	}{
		{"ERROR", true},
		{"error", true},
		{"Error", true},
		{"WARNING", true},
		{"warning", true},
		{"HIGH", false},
		{"MEDIUM", false},
		{"LOW", false},
		{"INFO", false},
		{"", false},
		{"WARN", false},
	}

	for _, tc := range cases {
		if got := FailingSeverity(tc.severity); got != tc.want {
			t.Errorf("FailingSeverity(%q) = %v, want %v", tc.severity, got, tc.want)
		}
	}
}

func TestSectionFailed(t *testing.T) {
	t.Run("no findings", func(t *testing.T) {
		s := Section{Name: "Groups"}
		if s.Failed() {
			t.Error("section without findings should pass")
		}
	})

	t.Run("only informational findings", func(t *testing.T) {
		s := Section{Findings: []Finding{
			{Severity: SeverityInfo, Message: "ok"},
			{Severity: SeverityLow, Message: "minor"},
		}}
		if s.Failed() {
			t.Error("informational findings should not fail a section")
		}
	})

	t.Run("one failing among many", func(t *testing.T) {
		s := Section{Findings: []Finding{
			{Severity: SeverityInfo, Message: "ok"},
			{Severity: "warning", Message: "weak policy"},
		}}
		if !s.Failed() {
			t.Error("a single WARNING finding should fail the section")
		}
	})
}

func TestDeriveStatus(t *testing.T) {
	t.Run("empty run passes", func(t *testing.T) {
		if got := DeriveStatus(nil); got != RunStatusPass {
			t.Errorf("DeriveStatus(nil) = %q, want PASS", got)
		}
	})

	t.Run("all sections pass", func(t *testing.T) {
		sections := []Section{
			{Findings: []Finding{{Severity: SeverityInfo}}},
			{},
		}
		if got := DeriveStatus(sections); got != RunStatusPass {
			t.Errorf("DeriveStatus() = %q, want PASS", got)
		}
	})

	t.Run("any failing section fails the run", func(t *testing.T) {
		sections := []Section{
			{},
			{Findings: []Finding{{Severity: SeverityError}}},
			{},
		}
		if got := DeriveStatus(sections); got != RunStatusFail {
			t.Errorf("DeriveStatus() = %q, want FAIL", got)
		}
	})
}
