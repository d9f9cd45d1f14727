package history

import (
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/supervisor"
)

func TestStore_RecordStartAndExit(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	started := time.Now()
	rec := supervisor.RunRecord{
		ID:        "run-1",
		TaskID:    "dev_server",
		PID:       4242,
		StartedAt: started,
	}
	if err := store.RecordStart(rec); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("Recent count = %d, want 1", len(runs))
	}
	if runs[0].Status != "running" {
		t.Errorf("Status = %q, want running", runs[0].Status)
	}
	if runs[0].PID != 4242 {
		t.Errorf("PID = %d, want 4242", runs[0].PID)
	}
	if !runs[0].FinishedAt.IsZero() {
		t.Error("FinishedAt should be zero while the run is live")
	}

	if err := store.RecordExit("run-1", time.Now(), "failed", "exit code 1"); err != nil {
		t.Fatal(err)
	}

	runs, _ = store.Recent(10)
	if runs[0].Status != "failed" {
		t.Errorf("Status = %q, want failed", runs[0].Status)
	}
	if runs[0].Reason != "exit code 1" {
		t.Errorf("Reason = %q", runs[0].Reason)
	}
	if runs[0].FinishedAt.IsZero() {
		t.Error("FinishedAt should be set after exit")
	}
}

func TestStore_RecentOrdersNewestFirst(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := supervisor.RunRecord{
			ID:        string(rune('a' + i)),
			TaskID:    "build",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.RecordStart(rec); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("Recent count = %d, want 3", len(runs))
	}
	if runs[0].ID != "e" || runs[1].ID != "d" || runs[2].ID != "c" {
		t.Errorf("unexpected order: %s %s %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestStore_RecentForTask(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	now := time.Now()
	store.RecordStart(supervisor.RunRecord{ID: "r1", TaskID: "build", StartedAt: now})
	store.RecordStart(supervisor.RunRecord{ID: "r2", TaskID: "serve", StartedAt: now.Add(time.Second)})
	store.RecordStart(supervisor.RunRecord{ID: "r3", TaskID: "build", StartedAt: now.Add(2 * time.Second)})

	runs, err := store.RecentForTask("build", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("count = %d, want 2", len(runs))
	}
	for _, run := range runs {
		if run.TaskID != "build" {
			t.Errorf("TaskID = %q, want build", run.TaskID)
		}
	}
}

func TestStore_PruneKeepsLiveRuns(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	old := time.Now().Add(-48 * time.Hour)
	store.RecordStart(supervisor.RunRecord{ID: "old-done", TaskID: "build", StartedAt: old})
	store.RecordExit("old-done", old.Add(time.Minute), "stopped", "")
	store.RecordStart(supervisor.RunRecord{ID: "old-live", TaskID: "serve", StartedAt: old})
	store.RecordStart(supervisor.RunRecord{ID: "fresh", TaskID: "build", StartedAt: time.Now()})

	n, err := store.Prune(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	runs, _ := store.Recent(10)
	if len(runs) != 2 {
		t.Errorf("remaining = %d, want 2", len(runs))
	}
}
