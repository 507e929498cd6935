package reaper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sceneforge/internal/config"
	"sceneforge/internal/job"
	"sceneforge/internal/pkg/logger"
	"sceneforge/internal/ports"
)

type fakeStorage struct {
	deleted []string
}

func (f *fakeStorage) Provider() string { return "fake" }
func (f *fakeStorage) Remote() bool     { return true }

func (f *fakeStorage) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	return ports.PutObjectOutput{}, fmt.Errorf("not implemented")
}

func (f *fakeStorage) DeleteObject(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func testSetup(t *testing.T) (*Reaper, *job.FileStore, config.Config) {
	r, store, cfg, _ := testSetupWithStorage(t)
	return r, store, cfg
}

func testSetupWithStorage(t *testing.T) (*Reaper, *job.FileStore, config.Config, *fakeStorage) {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Root = t.TempDir()
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	store := job.NewFileStore(cfg.JobsDir(), testLogger())
	sp := &fakeStorage{}
	return New(store, sp, cfg, testLogger()), store, cfg, sp
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSweepRemovesExpiredTerminalJob(t *testing.T) {
	r, store, cfg := testSetup(t)

	now := time.Now().UTC()
	done := now.Add(-25 * time.Hour)
	store.Put(job.Job{
		ID:          "old-done",
		Status:      job.StatusCompleted,
		CreatedAt:   now.Add(-26 * time.Hour),
		CompletedAt: &done,
	})

	codeFile := filepath.Join(cfg.CodeDir(), "old-done.py")
	mediaFile := filepath.Join(cfg.MediaDir(), "old-done.mp4")
	nestedMedia := filepath.Join(cfg.MediaDir(), "videos", "generated_scene", "720p24", "old-done.mp4")
	outLog := filepath.Join(cfg.LogsDir(), "old-done.out.log")
	errLog := filepath.Join(cfg.LogsDir(), "old-done.err.log")
	for _, p := range []string{codeFile, mediaFile, nestedMedia, outLog, errLog} {
		touch(t, p)
	}

	if got := r.Sweep(); got != 1 {
		t.Errorf("Sweep removed %d jobs, want 1", got)
	}

	if _, err := store.Get("old-done"); err == nil {
		t.Error("job record should be gone")
	}
	for _, p := range []string{codeFile, mediaFile, nestedMedia, outLog, errLog} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("file should be removed: %s", p)
		}
	}
}

func TestSweepKeepsRecentTerminalJob(t *testing.T) {
	r, store, _ := testSetup(t)

	store.Put(job.Job{
		ID:        "fresh",
		Status:    job.StatusFailed,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	})

	if got := r.Sweep(); got != 0 {
		t.Errorf("Sweep removed %d jobs, want 0", got)
	}
	if _, err := store.Get("fresh"); err != nil {
		t.Errorf("recent job must survive: %v", err)
	}
}

func TestSweepNeverTouchesActiveJobs(t *testing.T) {
	r, store, _ := testSetup(t)

	// Old but still in flight. A wedged job is the pipeline's problem, not
	// the reaper's.
	store.Put(job.Job{
		ID:        "stuck",
		Status:    job.StatusRendering,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})

	if got := r.Sweep(); got != 0 {
		t.Errorf("Sweep removed %d jobs, want 0", got)
	}
	if _, err := store.Get("stuck"); err != nil {
		t.Errorf("active job must survive: %v", err)
	}
}

func TestSweepDeletesRemoteArtifact(t *testing.T) {
	r, store, _, sp := testSetupWithStorage(t)
	now := time.Now().UTC()

	store.Put(job.Job{
		ID:        "published",
		Status:    job.StatusCompleted,
		RemoteKey: "file-123",
		CreatedAt: now.Add(-30 * time.Hour),
	})
	store.Put(job.Job{
		ID:        "local-only",
		Status:    job.StatusCompleted,
		CreatedAt: now.Add(-30 * time.Hour),
	})

	if got := r.Sweep(); got != 2 {
		t.Errorf("Sweep removed %d jobs, want 2", got)
	}
	if len(sp.deleted) != 1 || sp.deleted[0] != "file-123" {
		t.Errorf("remote deletions = %v", sp.deleted)
	}
}

func TestSweepMixedPopulation(t *testing.T) {
	r, store, _ := testSetup(t)
	now := time.Now().UTC()

	store.Put(job.Job{ID: "a", Status: job.StatusCompleted, CreatedAt: now.Add(-30 * time.Hour)})
	store.Put(job.Job{ID: "b", Status: job.StatusFailed, CreatedAt: now.Add(-30 * time.Hour)})
	store.Put(job.Job{ID: "c", Status: job.StatusCompleted, CreatedAt: now.Add(-1 * time.Hour)})
	store.Put(job.Job{ID: "d", Status: job.StatusProcessing, CreatedAt: now.Add(-30 * time.Hour)})

	if got := r.Sweep(); got != 2 {
		t.Errorf("Sweep removed %d jobs, want 2", got)
	}
	if len(store.List()) != 2 {
		t.Errorf("store has %d jobs, want 2", len(store.List()))
	}
}
