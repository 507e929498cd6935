// Package generate produces animation source code from a natural-language
// request by walking a ranked list of external code-generation providers.
package generate

import "context"

// Provider is one external code-generation backend. Implementations are
// capability-equivalent: the generator tries them in priority order and
// discards any candidate that errors or returns structurally invalid code.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
