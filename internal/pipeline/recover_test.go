package pipeline

import (
	"testing"
	"time"

	"sceneforge/internal/config"
	"sceneforge/internal/job"
)

func TestFailInterruptedTerminatesInFlightJobs(t *testing.T) {
	store := newMemStore()
	now := time.Now().UTC()
	done := now.Add(-time.Minute)

	store.Put(job.Job{ID: "in-processing", Status: job.StatusProcessing, CreatedAt: now})
	store.Put(job.Job{ID: "in-rendering", Status: job.StatusRendering, CreatedAt: now})
	store.Put(job.Job{ID: "already-done", Status: job.StatusCompleted, CreatedAt: now, CompletedAt: &done})
	store.Put(job.Job{ID: "already-failed", Status: job.StatusFailed, CreatedAt: now, CompletedAt: &done})

	if got := FailInterrupted(store, testLogger()); got != 2 {
		t.Errorf("FailInterrupted = %d, want 2", got)
	}

	for _, id := range []string{"in-processing", "in-rendering"} {
		j, err := store.Get(id)
		if err != nil {
			t.Fatal(err)
		}
		if j.Status != job.StatusFailed {
			t.Errorf("%s status = %s", id, j.Status)
		}
		if j.ErrorKind != "INTERRUPTED" {
			t.Errorf("%s error_kind = %q", id, j.ErrorKind)
		}
		if j.Error == "" || j.CompletedAt == nil {
			t.Errorf("%s missing user message or completed_at", id)
		}
	}

	j, _ := store.Get("already-done")
	if j.Status != job.StatusCompleted || j.ErrorKind != "" {
		t.Errorf("completed job must be untouched: %+v", j)
	}
}

func TestFailInterruptedAcrossRestart(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Root = t.TempDir()
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	log := testLogger()

	// First process life: a job persisted mid-render when the crash hits.
	first := job.NewFileStore(cfg.JobsDir(), log)
	first.Put(job.Job{ID: "wedged", Status: job.StatusRendering, CreatedAt: time.Now().UTC()})

	// Second life: recover, then terminate what nothing will resume.
	second := job.NewFileStore(cfg.JobsDir(), log)
	if err := second.LoadAll(); err != nil {
		t.Fatal(err)
	}
	if got := FailInterrupted(second, log); got != 1 {
		t.Errorf("FailInterrupted = %d, want 1", got)
	}

	j, err := second.Get("wedged")
	if err != nil {
		t.Fatal(err)
	}
	if !j.Terminal() {
		t.Errorf("recovered job still non-terminal: %s", j.Status)
	}
	if j.ErrorKind != "INTERRUPTED" {
		t.Errorf("error_kind = %q", j.ErrorKind)
	}

	// The terminal state must be durable for the reaper's next sweep.
	third := job.NewFileStore(cfg.JobsDir(), log)
	if err := third.LoadAll(); err != nil {
		t.Fatal(err)
	}
	j, err = third.Get("wedged")
	if err != nil {
		t.Fatal(err)
	}
	if j.Status != job.StatusFailed {
		t.Errorf("persisted status = %s", j.Status)
	}
}
