// Package job defines the unit of work and its durable store.
package job

import "time"

// Status is the lifecycle state of a job. The success path is
// processing -> rendering -> completed; failed is reachable from any
// non-terminal state.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusRendering  Status = "rendering"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Kind distinguishes a fresh generation from a revision of prior code.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindEdit     Kind = "edit"
)

// Job is one request's full lifecycle record from submission to terminal
// state. In-memory records are authoritative while the process is alive;
// the on-disk JSON mirror is the recovery source after restart.
type Job struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Kind   Kind   `json:"kind"`

	Prompt string `json:"prompt,omitempty"`

	// Edit jobs carry the prior code and a reference to the prior artifact.
	EditPrompt       string `json:"edit_prompt,omitempty"`
	OriginalCode     string `json:"original_code,omitempty"`
	PreviousVideoURL string `json:"previous_video_url,omitempty"`
	PreviousVideoID  string `json:"previous_video_id,omitempty"`

	// GeminiAPIKey is a per-request credential override. It is persisted
	// with the record but never exposed through the status API.
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	Code  string `json:"code,omitempty"`
	Title string `json:"title,omitempty"`

	// VideoURL is the artifact reference: a remote URL once published, the
	// local serving path otherwise. When it is a remote URL the local copy
	// may have been deleted and VideoPath is no longer authoritative.
	VideoURL  string `json:"video_url,omitempty"`
	VideoPath string `json:"video_path,omitempty"`
	// RemoteKey is the storage provider's handle for a remotely published
	// artifact. The reaper needs it to delete the remote copy.
	RemoteKey string `json:"remote_key,omitempty"`

	ErrorKind string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// UserPrompt returns the text that drives generation for this job.
func (j Job) UserPrompt() string {
	if j.Kind == KindEdit {
		return j.EditPrompt
	}
	return j.Prompt
}
