package pipeline

import (
	"context"
	"sync"

	"sceneforge/internal/job"
	"sceneforge/internal/pkg/logger"
)

const queueDepth = 128

// Pool executes jobs on a fixed set of workers. Submission is non-blocking:
// a full queue is reported to the caller instead of stalling the HTTP layer.
type Pool struct {
	orch    *Orchestrator
	workers int
	queue   chan job.Job
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewPool(orch *Orchestrator, workers int, log *logger.Logger) *Pool {
	return &Pool{
		orch:    orch,
		workers: workers,
		queue:   make(chan job.Job, queueDepth),
		log:     log.WithComponent("workers"),
	}
}

// Start launches the workers. They drain until ctx is canceled; jobs already
// picked up run to their terminal state.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.log.Info("worker pool started", "workers", p.workers)
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			p.orch.Process(ctx, j)
		}
	}
}

// Submit enqueues a job. It reports false when the queue is full; the caller
// decides how to surface the backpressure.
func (p *Pool) Submit(j job.Job) bool {
	select {
	case p.queue <- j:
		return true
	default:
		p.log.Warn("job queue full, rejecting submission", "job_id", j.ID)
		return false
	}
}

// Wait blocks until every worker has exited. Call after canceling the
// context passed to Start.
func (p *Pool) Wait() {
	p.wg.Wait()
}
