package answer

import (
	"context"
	"log/slog"

	"docsense/internal/vector"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Synthesizer turns a question plus retrieved matches into a raw answer by
// prompting the generative backend. Output still needs post-processing.
type Synthesizer struct {
	gen Generator
}

func NewSynthesizer(gen Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, matches []vector.Match) (string, error) {
	contexts := make([]string, len(matches))
	for i, m := range matches {
		contexts[i] = m.Content
	}

	prompt := BuildPrompt(question, contexts)
	slog.DebugContext(ctx, "synthesizing answer", "contexts", len(contexts), "prompt_chars", len(prompt))

	return s.gen.Generate(ctx, prompt)
}
