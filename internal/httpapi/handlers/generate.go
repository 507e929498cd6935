package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sceneforge/internal/httpkit"
	"sceneforge/internal/job"
)

type GenerateRequest struct {
	Prompt string `json:"prompt"`
	// GeminiAPIKey lets a caller bring their own credential for this job.
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
}

type acceptedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PostGenerate accepts a natural-language animation request and queues it.
// The caller polls /status/{id} for progress.
func (h *Handler) PostGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "prompt is required", map[string]any{"field": "prompt"})
		return
	}

	j := job.Job{
		ID:           uuid.New().String(),
		Status:       job.StatusProcessing,
		Kind:         job.KindGenerate,
		Prompt:       prompt,
		GeminiAPIKey: strings.TrimSpace(req.GeminiAPIKey),
		CreatedAt:    time.Now().UTC(),
	}

	h.enqueue(w, r, j)
}

// enqueue persists the record before submission so a poll arriving ahead of
// the first worker touch already sees the job.
func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, j job.Job) {
	h.store.Put(j)

	if !h.pool.Submit(j) {
		h.store.Delete(j.ID)
		httpkit.WriteErr(w, 503, "UNAVAILABLE", "service is at capacity, try again later", nil)
		return
	}

	h.log.FromContext(r.Context()).Info("job accepted", "job_id", j.ID, "kind", string(j.Kind))
	httpkit.WriteJSON(w, 202, acceptedResponse{ID: j.ID, Status: string(j.Status)})
}
