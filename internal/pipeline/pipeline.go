// Package pipeline drives a job through generation, sanitization, rendering
// and publication, persisting every status transition.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"sceneforge/internal/classify"
	"sceneforge/internal/generate"
	"sceneforge/internal/job"
	"sceneforge/internal/pkg/logger"
	"sceneforge/internal/publish"
	"sceneforge/internal/sanitize"
)

// Generator produces candidate animation code for a request.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (generate.Result, error)
}

// Renderer turns sanitized code into a video artifact.
type Renderer interface {
	Render(ctx context.Context, jobID, code string) (string, error)
}

// Publisher stores the artifact and returns the client-facing reference.
type Publisher interface {
	Publish(ctx context.Context, j job.Job, artifactPath string) publish.Result
}

// Orchestrator owns the job lifecycle. Failures at any step classify into a
// stable error kind; the raw cause only reaches the logs.
type Orchestrator struct {
	store    job.Store
	gen      Generator
	renderer Renderer
	pub      Publisher
	codeDir  string
	log      *logger.Logger
	now      func() time.Time
}

func NewOrchestrator(store job.Store, gen Generator, renderer Renderer, pub Publisher, codeDir string, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		gen:      gen,
		renderer: renderer,
		pub:      pub,
		codeDir:  codeDir,
		log:      log.WithComponent("pipeline"),
		now:      time.Now,
	}
}

// Process runs one job to a terminal state. The success path is
// processing -> rendering -> completed; any step error lands in failed with
// a classified kind and a user-facing message.
func (o *Orchestrator) Process(ctx context.Context, j job.Job) {
	log := o.log.WithJobID(j.ID)
	log.Info("job started", "kind", string(j.Kind))

	res, err := o.gen.Generate(ctx, generate.Request{
		Kind:         j.Kind,
		Prompt:       j.UserPrompt(),
		OriginalCode: j.OriginalCode,
		GeminiKey:    j.GeminiAPIKey,
	})
	if err != nil {
		o.failJob(j, err)
		return
	}

	code, err := sanitize.Sanitize(res.Code)
	if err != nil {
		o.failJob(j, err)
		return
	}

	j.Code = code
	j.Title = res.Title
	j.Status = job.StatusRendering
	o.store.Put(j)
	o.persistCode(j.ID, code)

	artifact, err := o.renderer.Render(ctx, j.ID, code)
	if err != nil {
		o.failJob(j, err)
		return
	}

	pubRes := o.pub.Publish(ctx, j, artifact)

	now := o.now().UTC()
	j.Status = job.StatusCompleted
	j.VideoURL = pubRes.URL
	j.VideoPath = pubRes.LocalPath
	j.RemoteKey = pubRes.RemoteKey
	j.CompletedAt = &now
	o.store.Put(j)

	log.Info("job completed", "video_url", j.VideoURL, "provider", res.Provider)
}

// failJob records a terminal failure. The classified user message is what
// the status API exposes; the raw error goes to the log only.
func (o *Orchestrator) failJob(j job.Job, cause error) {
	kind, msg := classify.ClassifyError(cause)

	now := o.now().UTC()
	j.Status = job.StatusFailed
	j.ErrorKind = string(kind)
	j.Error = msg
	j.CompletedAt = &now
	o.store.Put(j)

	o.log.WithJobID(j.ID).WithError(cause).Error("job failed", "error_kind", string(kind))
}

// persistCode mirrors the sanitized program to disk for inspection and edit
// requests. Best effort: the job record already carries the code.
func (o *Orchestrator) persistCode(jobID, code string) {
	p := filepath.Join(o.codeDir, jobID+".py")
	if err := os.WriteFile(p, []byte(code), 0o644); err != nil {
		o.log.WithJobID(jobID).WithError(err).Warn("could not persist generated code")
	}
}
