// Package classify maps free-text pipeline failures to a stable error kind
// and a short user-facing message. Raw provider and toolchain text never
// reaches the caller; this mapping is the only thing they see.
package classify

import (
	"strings"

	"sceneforge/internal/pkg/errors"
)

// Kind is the stable tag clients branch on.
type Kind string

const (
	KindTimeout          Kind = "TIMEOUT_ERROR"
	KindMemory           Kind = "MEMORY_ERROR"
	KindRenderDependency Kind = "RENDER_DEPENDENCY"
	KindProvider         Kind = "PROVIDER_ERROR"
	KindInvalidCode      Kind = "INVALID_CODE"
	KindMissingArtifact  Kind = "MISSING_ARTIFACT"
	KindGenerationFailed Kind = "GENERATION_FAILED"
	KindRenderFailed     Kind = "RENDER_FAILED"
	KindInterrupted      Kind = "INTERRUPTED"
	KindUnknown          Kind = "UNKNOWN_ERROR"
)

var userMessages = map[Kind]string{
	KindTimeout:          "Video rendering took too long. The animation might be too complex. Try simplifying your request.",
	KindMemory:           "Video rendering failed due to insufficient memory. Try creating a shorter or simpler animation.",
	KindRenderDependency: "Rendering failed due to a missing toolchain dependency. Please contact support.",
	KindProvider:         "AI service is temporarily unavailable. Please try again in a moment.",
	KindInvalidCode:      "Generated code has errors. Please try rephrasing your request.",
	KindMissingArtifact:  "Rendering finished but no video was produced. Please try again.",
	KindGenerationFailed: "Failed to generate animation code. Please try a different prompt.",
	KindRenderFailed:     "Video rendering failed. The animation might be too complex or contain unsupported features.",
	KindInterrupted:      "Processing was interrupted by a service restart. Please submit your request again.",
	KindUnknown:          "An unexpected error occurred. Please try again or contact support.",
}

// rule is one ordered keyword predicate. First match wins.
type rule struct {
	kind     Kind
	keywords []string
}

var rules = []rule{
	{KindInterrupted, []string{"context canceled", "interrupted"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{KindMemory, []string{"out of memory", "memory"}},
	{KindRenderDependency, []string{"latex", "dvisvgm", "tex ", "file not found", "no such file", "executable not found"}},
	{KindProvider, []string{"rate limit", "quota", "api key", "api error", "unauthorized", "api "}},
	{KindInvalidCode, []string{"invalid code", "syntax", "indentation", "construct method", "scene class"}},
	{KindMissingArtifact, []string{"no video file", "missing artifact", "no output located"}},
	{KindGenerationFailed, []string{"failed to generate", "no code", "providers exhausted", "failed to edit"}},
	{KindRenderFailed, []string{"render failed", "rendering error", "non-zero exit"}},
}

// Classify maps a failure message to a (kind, user message) pair. It is
// total: unmatched input classifies as UNKNOWN_ERROR.
func Classify(message string) (Kind, string) {
	lower := strings.ToLower(message)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.kind, userMessages[r.kind]
			}
		}
	}
	return KindUnknown, userMessages[KindUnknown]
}

// ClassifyError prefers the structured code when the error carries one and
// falls back to text classification. A generic render failure carries the
// subprocess stderr tail in its message, so the keyword rules get the first
// look there: an out-of-memory or missing-toolchain stderr classifies as its
// specific kind, not as RENDER_FAILED.
func ClassifyError(err error) (Kind, string) {
	if err == nil {
		return KindUnknown, userMessages[KindUnknown]
	}

	var e *errors.Error
	if errors.As(err, &e) {
		if e.Code == errors.CodeRenderFailed {
			if kind, msg := Classify(err.Error()); kind != KindUnknown {
				return kind, msg
			}
			return KindRenderFailed, userMessages[KindRenderFailed]
		}
		if kind, ok := kindForCode(e.Code); ok {
			return kind, userMessages[kind]
		}
	}
	return Classify(err.Error())
}

func kindForCode(code errors.Code) (Kind, bool) {
	switch code {
	case errors.CodeRenderTimeout:
		return KindTimeout, true
	case errors.CodeGeneration:
		return KindGenerationFailed, true
	case errors.CodeInvalidCode:
		return KindInvalidCode, true
	case errors.CodeMissingArtifact:
		return KindMissingArtifact, true
	case errors.CodeRenderFailed:
		return KindRenderFailed, true
	case errors.CodeInterrupted:
		return KindInterrupted, true
	case errors.CodeUnavailable:
		return KindProvider, true
	default:
		return KindUnknown, false
	}
}

// UserMessage returns the fixed message for a kind.
func UserMessage(kind Kind) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}
