package audit

import (
	"context"
	"testing"
)

func TestFetchLastRun(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		_, reader, _ := newTestStore(t)

		run, err := reader.FetchLastRun(ctx)
		if err != nil {
			t.Fatalf("FetchLastRun() error = %v", err)
		}
		if run != nil {
			t.Errorf("FetchLastRun() = %+v, want nil on empty store", run)
		}
	})

	t.Run("returns the newest run", func(t *testing.T) {
		store, reader, _ := newTestStore(t)

		if _, err := store.CreateRun(ctx, CreateRunOptions{Domain: "old.example.com"}); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		newest, err := store.CreateRun(ctx, CreateRunOptions{Domain: "new.example.com"})
		if err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		run, err := reader.FetchLastRun(ctx)
		if err != nil {
			t.Fatalf("FetchLastRun() error = %v", err)
		}
		if run == nil {
			t.Fatal("FetchLastRun() = nil, want newest run")
		}
		if run.ID != newest {
			t.Errorf("run.ID = %d, want %d", run.ID, newest)
		}
		if run.Domain != "new.example.com" {
			t.Errorf("run.Domain = %q, want new.example.com", run.Domain)
		}
	})
}

func TestFetchRun(t *testing.T) {
	ctx := context.Background()

	t.Run("missing and invalid ids", func(t *testing.T) {
		_, reader, _ := newTestStore(t)

		for _, id := range []int64{0, -1, 42} {
			run, err := reader.FetchRun(ctx, id)
			if err != nil {
				t.Fatalf("FetchRun(%d) error = %v", id, err)
			}
			if run != nil {
				t.Errorf("FetchRun(%d) = %+v, want nil", id, run)
			}
		}
	})

	t.Run("run without sections", func(t *testing.T) {
		store, reader, _ := newTestStore(t)

		runID, err := store.CreateRun(ctx, CreateRunOptions{})
		if err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		run, err := reader.FetchRun(ctx, runID)
		if err != nil {
			t.Fatalf("FetchRun() error = %v", err)
		}
		if run == nil {
			t.Fatal("FetchRun() = nil for existing run")
		}
		if len(run.Sections) != 0 {
			t.Errorf("Sections = %v, want empty", run.Sections)
		}
	})

	t.Run("full tree in insertion order", func(t *testing.T) {
		store, reader, _ := newTestStore(t)

		runID, err := store.CreateRun(ctx, CreateRunOptions{Domain: "example.com"})
		if err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		firstID, err := store.StartSection(ctx, runID, "Users and OUs")
		if err != nil {
			t.Fatalf("StartSection() error = %v", err)
		}
		if err := store.InsertFinding(ctx, firstID, SeverityInfo, "directory scanned"); err != nil {
			t.Fatalf("InsertFinding() error = %v", err)
		}
		if err := store.InsertFinding(ctx, firstID, SeverityError, "suspended admin retained"); err != nil {
			t.Fatalf("InsertFinding() error = %v", err)
		}
		if err := store.InsertStat(ctx, firstID, "items_checked", "250"); err != nil {
			t.Fatalf("InsertStat() error = %v", err)
		}
		if err := store.CompleteSection(ctx, firstID); err != nil {
			t.Fatalf("CompleteSection() error = %v", err)
		}

		secondID, err := store.StartSection(ctx, runID, "Authentication")
		if err != nil {
			t.Fatalf("StartSection() error = %v", err)
		}
		if err := store.CompleteSection(ctx, secondID); err != nil {
			t.Fatalf("CompleteSection() error = %v", err)
		}

		run, err := reader.FetchRun(ctx, runID)
		if err != nil {
			t.Fatalf("FetchRun() error = %v", err)
		}
		if len(run.Sections) != 2 {
			t.Fatalf("sections = %d, want 2", len(run.Sections))
		}

		first := run.Sections[0]
		if first.Name != "Users and OUs" {
			t.Errorf("first section = %q, want Users and OUs", first.Name)
		}
		if len(first.Findings) != 2 {
			t.Fatalf("findings = %d, want 2", len(first.Findings))
		}
		if first.Findings[0].Message != "directory scanned" {
			t.Errorf("finding order lost: first = %q", first.Findings[0].Message)
		}
		if !first.Failed() {
			t.Error("section with an ERROR finding should report as failed")
		}
		if len(first.Stats) != 1 || first.Stats[0].Value != "250" {
			t.Errorf("stats = %v, want [items_checked=250]", first.Stats)
		}

		second := run.Sections[1]
		if second.Name != "Authentication" {
			t.Errorf("second section = %q, want Authentication", second.Name)
		}
		if len(second.Findings) != 0 || len(second.Stats) != 0 {
			t.Errorf("second section should be empty, got %d findings %d stats",
				len(second.Findings), len(second.Stats))
		}
	})
}

func TestFetchRawObjects(t *testing.T) {
	ctx := context.Background()
	store, reader, _ := newTestStore(t)

	runID, err := store.CreateRun(ctx, CreateRunOptions{})
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	sectionID, err := store.StartSection(ctx, runID, "Drive Data Security")
	if err != nil {
		t.Fatalf("StartSection() error = %v", err)
	}

	payloads := []string{`{"first": 1}`, `{"second": 2}`, `{"third": 3}`}
	for _, p := range payloads {
		if err := store.InsertRaw(ctx, sectionID, []byte(p)); err != nil {
			t.Fatalf("InsertRaw(%s) error = %v", p, err)
		}
	}

	objects, err := reader.FetchRawObjects(ctx, sectionID)
	if err != nil {
		t.Fatalf("FetchRawObjects() error = %v", err)
	}
	if len(objects) != len(payloads) {
		t.Fatalf("objects = %d, want %d", len(objects), len(payloads))
	}
	for i, obj := range objects {
		if string(obj.Data) != payloads[i] {
			t.Errorf("object %d = %s, want %s (insertion order)", i, obj.Data, payloads[i])
		}
		if obj.SectionID != sectionID {
			t.Errorf("object %d section = %d, want %d", i, obj.SectionID, sectionID)
		}
	}

	t.Run("unknown section", func(t *testing.T) {
		objects, err := reader.FetchRawObjects(ctx, 999)
		if err != nil {
			t.Fatalf("FetchRawObjects(999) error = %v", err)
		}
		if len(objects) != 0 {
			t.Errorf("objects = %d, want 0", len(objects))
		}
	})
}
