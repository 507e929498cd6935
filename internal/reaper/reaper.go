// Package reaper removes expired terminal jobs and everything they left on
// disk.
package reaper

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sceneforge/internal/config"
	"sceneforge/internal/job"
	"sceneforge/internal/pkg/logger"
	"sceneforge/internal/ports"
)

// Reaper sweeps on a fixed interval. Only terminal jobs are eligible: a job
// still processing or rendering is never reclaimed, however old.
type Reaper struct {
	store     job.Store
	sp        ports.StorageProvider
	interval  time.Duration
	retention time.Duration
	codeDir   string
	mediaDir  string
	logsDir   string
	log       *logger.Logger
	now       func() time.Time
}

func New(store job.Store, sp ports.StorageProvider, cfg config.Config, log *logger.Logger) *Reaper {
	return &Reaper{
		store:     store,
		sp:        sp,
		interval:  cfg.ReaperInterval(),
		retention: cfg.JobRetention(),
		codeDir:   cfg.CodeDir(),
		mediaDir:  cfg.MediaDir(),
		logsDir:   cfg.LogsDir(),
		log:       log.WithComponent("reaper"),
		now:       time.Now,
	}
}

// Run sweeps until ctx is canceled. The first sweep happens after one full
// interval so startup recovery finishes first.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("reaper started", "interval", r.interval.String(), "retention", r.retention.String())

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep deletes every terminal job older than the retention window along
// with its code, media and log files. It returns the number of jobs removed.
func (r *Reaper) Sweep() int {
	cutoff := r.now().Add(-r.retention)

	removed := 0
	for _, j := range r.store.List() {
		if !j.Terminal() || j.CreatedAt.After(cutoff) {
			continue
		}
		r.removeRemote(j)
		r.removeFiles(j.ID)
		r.store.Delete(j.ID)
		removed++
	}

	if removed > 0 {
		r.log.Info("swept expired jobs", "removed", removed)
	}
	return removed
}

// removeRemote deletes the remotely published artifact, if any. Best
// effort: the provider may have already dropped the object.
func (r *Reaper) removeRemote(j job.Job) {
	if j.RemoteKey == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.sp.DeleteObject(ctx, j.RemoteKey); err != nil {
		r.log.Error("failed to delete remote artifact", "job_id", j.ID, "key", j.RemoteKey, "error", err.Error())
	}
}

func (r *Reaper) removeFiles(jobID string) {
	r.remove(filepath.Join(r.codeDir, jobID+".py"))
	r.remove(filepath.Join(r.logsDir, jobID+".out.log"))
	r.remove(filepath.Join(r.logsDir, jobID+".err.log"))

	// Media may be nested under manim's output tree when promotion failed,
	// so the whole directory is walked.
	_ = filepath.WalkDir(r.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.Contains(d.Name(), jobID) {
			r.remove(path)
		}
		return nil
	})
}

func (r *Reaper) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.log.Error("failed to remove file", "path", path, "error", err.Error())
	}
}
