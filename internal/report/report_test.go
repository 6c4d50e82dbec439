package report

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Record(Run{
		Direction:   "extract",
		Input:       "report.docx",
		Output:      "report.txt",
		Class:       "L1",
		Diagnostics: 0,
		Ledger:      `{"class":"L1"}`,
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if id == "" {
		t.Fatal("Record() returned empty id")
	}

	run, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if run.Direction != "extract" || run.Class != "L1" {
		t.Errorf("run = %+v", run)
	}
	if run.StartedAt.IsZero() {
		t.Error("StartedAt not assigned")
	}
}

func TestRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.Record(Run{
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Direction: "render",
			Input:     "notes.txt",
			Output:    "notes.docx",
			Class:     "L2",
			Ledger:    "{}",
		})
		if err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	runs, err := s.Runs(2)
	if err != nil {
		t.Fatalf("Runs() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("runs not newest first: %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}
}

func TestGetMissingRun(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("no-such-run"); err == nil {
		t.Error("Get() should fail for an unknown id")
	}
}

func TestDriverType(t *testing.T) {
	got := DriverType()
	if got != "purego" && got != "cgo" {
		t.Errorf("DriverType() = %q", got)
	}
}
