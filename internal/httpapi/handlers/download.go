package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"sceneforge/internal/httpkit"
	"sceneforge/internal/job"
)

// Download serves the finished artifact. Remotely published videos redirect
// to their URL; local ones stream from disk.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	j, err := h.store.Get(id)
	if err != nil {
		httpkit.WriteErr(w, 404, "JOB_NOT_FOUND", "no job with that id", map[string]any{"id": id})
		return
	}

	if j.Status != job.StatusCompleted {
		httpkit.WriteErr(w, 404, "NOT_READY", "video is not ready yet", map[string]any{"status": string(j.Status)})
		return
	}

	if strings.HasPrefix(j.VideoURL, "http://") || strings.HasPrefix(j.VideoURL, "https://") {
		http.Redirect(w, r, j.VideoURL, http.StatusTemporaryRedirect)
		return
	}

	path := j.VideoPath
	if path == "" {
		path = filepath.Join(h.cfg.MediaDir(), id+".mp4")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		h.log.FromContext(r.Context()).Error("artifact missing for completed job", "job_id", id, "path", path)
		httpkit.WriteErr(w, 404, "NOT_FOUND", "video file no longer exists", nil)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="animation_`+id+`.mp4"`)
	http.ServeFile(w, r, path)
}
