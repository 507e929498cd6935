package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sceneforge/internal/httpkit"
	"sceneforge/internal/job"
)

// StatusResponse is the observable projection of a job. Credentials and
// other internal fields never appear here.
type StatusResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Kind        string     `json:"kind"`
	Prompt      string     `json:"prompt,omitempty"`
	EditPrompt  string     `json:"edit_prompt,omitempty"`
	Code        string     `json:"code,omitempty"`
	Title       string     `json:"title,omitempty"`
	VideoURL    string     `json:"video_url,omitempty"`
	ErrorKind   string     `json:"error_type,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GetStatus reports the current state of a job.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	j, err := h.store.Get(id)
	if err != nil {
		httpkit.WriteErr(w, 404, "JOB_NOT_FOUND", "no job with that id", map[string]any{"id": id})
		return
	}

	httpkit.WriteJSON(w, 200, statusView(j))
}

func statusView(j job.Job) StatusResponse {
	return StatusResponse{
		ID:          j.ID,
		Status:      string(j.Status),
		Kind:        string(j.Kind),
		Prompt:      j.Prompt,
		EditPrompt:  j.EditPrompt,
		Code:        j.Code,
		Title:       j.Title,
		VideoURL:    j.VideoURL,
		ErrorKind:   j.ErrorKind,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
}
