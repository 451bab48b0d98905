// Package llm provides the text-generation contract used by the
// onboarding engine for query synthesis, question phrasing, and answer
// extraction, together with a provider-agnostic HTTP client. The engine
// only depends on Generator, so a live model is never required in tests.
package llm

import "context"

// Generator produces text for a prompt. Implementations are opaque and
// swappable; the deterministic scheduling logic around them never
// inspects how the text was produced.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Static returns a Generator that always produces the same text.
// Useful as a test double and as a fallback when no provider is
// configured.
func Static(text string) Generator {
	return GeneratorFunc(func(context.Context, string) (string, error) {
		return text, nil
	})
}
