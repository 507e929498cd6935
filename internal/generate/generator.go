package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sceneforge/internal/config"
	"sceneforge/internal/job"
	"sceneforge/internal/pkg/errors"
	"sceneforge/internal/pkg/logger"
)

const systemPrompt = `You are an expert Manim developer. Generate complete, runnable Manim code for the requested animation.

Rules:
- Use "from manim import *" as the only framework import.
- Define exactly one class extending Scene with a construct(self) method.
- Target Manim Community edition syntax only.
- Start the code with a comment line "# <short title>" describing the animation.
- Return only Python code, no explanations.`

const editInstruction = `You are editing an existing Manim animation. Apply the requested change to the original code while keeping everything else intact. Return the complete updated program, not a diff.`

// Request describes one generation attempt for a job.
type Request struct {
	Kind   job.Kind
	Prompt string
	// OriginalCode is the prior program being revised; edit jobs only.
	OriginalCode string
	// GeminiKey overrides the configured Gemini credential for this
	// request. Empty means use the service key.
	GeminiKey string
}

// Result is a structurally valid candidate program.
type Result struct {
	Code     string
	Title    string
	Provider string
}

// Generator walks a ranked provider list until one returns code that
// survives structural validation. Provider errors are logged and absorbed;
// only full exhaustion surfaces to the caller.
type Generator struct {
	log        *logger.Logger
	candidates func(geminiKey string) []Provider
}

// New builds a generator over the configured Gemini model ranking with the
// Anthropic model as the final fallback.
func New(cfg config.Gen, log *logger.Logger) *Generator {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		log: log,
		candidates: func(geminiKey string) []Provider {
			if geminiKey == "" {
				geminiKey = cfg.GeminiAPIKey
			}
			var out []Provider
			if geminiKey != "" {
				for _, model := range cfg.GeminiModels {
					out = append(out, NewGemini(model, geminiKey, timeout))
				}
			}
			if cfg.AnthropicAPIKey != "" && cfg.AnthropicModel != "" {
				out = append(out, NewAnthropic(cfg.AnthropicModel, cfg.AnthropicAPIKey, timeout))
			}
			return out
		},
	}
}

// NewWithProviders builds a generator over a fixed provider list. The
// per-request Gemini key override is ignored.
func NewWithProviders(log *logger.Logger, providers ...Provider) *Generator {
	return &Generator{
		log:        log,
		candidates: func(string) []Provider { return providers },
	}
}

// Generate returns the first acceptable candidate. When every provider is
// exhausted it fails with a GENERATION_FAILED error; there is no synthetic
// fallback program.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	providers := g.candidates(req.GeminiKey)
	if len(providers) == 0 {
		return Result{}, errors.New(errors.CodeGeneration, "no code generation providers configured")
	}

	userPrompt := buildUserPrompt(req)

	for _, p := range providers {
		if ctx.Err() != nil {
			return Result{}, errors.Wrap(ctx.Err(), "Generator.Generate", "generation canceled")
		}

		raw, err := p.Generate(ctx, systemPrompt, userPrompt)
		if err != nil {
			g.log.Warn("provider attempt failed", "provider", p.Name(), "error", err.Error())
			continue
		}

		code := stripFences(raw)
		if reason := checkShape(code); reason != "" {
			g.log.Warn("provider returned invalid code", "provider", p.Name(), "reason", reason)
			continue
		}

		title := extractTitle(code)
		if title == "" {
			title = synthesizeTitle(req.Prompt)
		}

		g.log.Info("code generated", "provider", p.Name(), "title", title)
		return Result{Code: code, Title: title, Provider: p.Name()}, nil
	}

	return Result{}, errors.New(errors.CodeGeneration, "all code generation providers failed")
}

func buildUserPrompt(req Request) string {
	if req.Kind == job.KindEdit {
		return fmt.Sprintf("%s\n\nOriginal code:\n%s\n\nRequested change: %s",
			editInstruction, req.OriginalCode, req.Prompt)
	}
	return "User Request: " + req.Prompt
}

// stripFences removes markdown code fencing that providers wrap around the
// program despite instructions.
func stripFences(raw string) string {
	code := strings.TrimSpace(raw)
	code = strings.TrimPrefix(code, "```python")
	code = strings.TrimPrefix(code, "```")
	code = strings.TrimSuffix(code, "```")
	return strings.TrimSpace(code)
}

// checkShape rejects candidates that cannot possibly render. The empty
// string means the candidate is acceptable.
func checkShape(code string) string {
	if code == "" {
		return "empty response"
	}
	if !strings.Contains(code, "class") || !strings.Contains(code, "Scene") {
		return "missing scene class"
	}
	if !strings.Contains(code, "def construct(self):") {
		return "missing construct method"
	}
	return ""
}

// extractTitle pulls the leading "# <title>" comment the prompt asks for.
func extractTitle(code string) string {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "#!") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		// Title comment must lead the program; stop at the first code line.
		break
	}
	return ""
}

func synthesizeTitle(prompt string) string {
	title := strings.TrimSpace(prompt)
	if title == "" {
		return "Generated Animation"
	}
	if len(title) > 60 {
		title = strings.TrimSpace(title[:60])
	}
	return title
}
