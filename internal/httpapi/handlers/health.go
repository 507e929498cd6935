package handlers

import (
	"net/http"
	"os/exec"

	"sceneforge/internal/httpkit"
)

// Health reports service liveness plus the render toolchain and storage
// configuration, so a broken deployment is visible before the first job
// fails.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":  "ok",
		"service": "sceneforge-api",
		"storage": h.sp.Provider(),
		"checks": map[string]any{
			"python": checkBinary(h.cfg.Render.PythonBin),
			"ffmpeg": checkBinary(h.cfg.Render.FFmpegBin),
		},
	}

	httpkit.WriteJSON(w, 200, health)
}

func checkBinary(bin string) map[string]any {
	path, err := exec.LookPath(bin)
	if err != nil {
		return map[string]any{"status": "missing", "bin": bin}
	}
	return map[string]any{"status": "ok", "path": path}
}
