package pipeline

import (
	"time"

	"sceneforge/internal/classify"
	"sceneforge/internal/job"
	"sceneforge/internal/pkg/logger"
)

// FailInterrupted terminates every non-terminal job in the store. It runs
// once at startup, after recovery and before the worker pool starts: a job
// persisted as processing or rendering at that point was cut short by a
// crash or restart and no worker will ever pick it up again, so it must not
// stay in flight forever.
func FailInterrupted(store job.Store, log *logger.Logger) int {
	now := time.Now().UTC()

	failed := 0
	for _, j := range store.List() {
		if j.Terminal() {
			continue
		}
		j.Status = job.StatusFailed
		j.ErrorKind = string(classify.KindInterrupted)
		j.Error = classify.UserMessage(classify.KindInterrupted)
		j.CompletedAt = &now
		store.Put(j)
		failed++
	}

	if failed > 0 {
		log.Warn("failed jobs interrupted by restart", "count", failed)
	}
	return failed
}
