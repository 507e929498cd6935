package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sceneforge/internal/httpkit"
	"sceneforge/internal/job"
)

type EditRequest struct {
	Code             string `json:"code"`
	Prompt           string `json:"prompt"`
	PreviousVideoURL string `json:"previous_video_url,omitempty"`
	PreviousVideoID  string `json:"previous_video_id,omitempty"`
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`
}

// PostEdit queues a revision of previously generated code. The edit runs
// through the same pipeline as a fresh generation.
func (h *Handler) PostEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "prompt is required", map[string]any{"field": "prompt"})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "code is required", map[string]any{"field": "code"})
		return
	}

	j := job.Job{
		ID:               uuid.New().String(),
		Status:           job.StatusProcessing,
		Kind:             job.KindEdit,
		EditPrompt:       prompt,
		OriginalCode:     req.Code,
		PreviousVideoURL: strings.TrimSpace(req.PreviousVideoURL),
		PreviousVideoID:  strings.TrimSpace(req.PreviousVideoID),
		GeminiAPIKey:     strings.TrimSpace(req.GeminiAPIKey),
		CreatedAt:        time.Now().UTC(),
	}

	h.enqueue(w, r, j)
}
