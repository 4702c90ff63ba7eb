package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docsense/internal/settings"
)

const generationModel = "gemini-2.0-flash"

// DynamicGenerator produces answer text from a prompt. Like the
// embedder it reads the API key and temperature from runtime settings
// per call; the output token cap comes from env config and is fixed
// for the process lifetime.
type DynamicGenerator struct {
	settingsSvc *settings.Service
	cache       clientCache
	maxTokens   int32
}

func NewDynamicGenerator(svc *settings.Service, maxTokens int, opts ...option.ClientOption) *DynamicGenerator {
	return &DynamicGenerator{
		settingsSvc: svc,
		cache:       clientCache{opts: opts},
		maxTokens:   int32(maxTokens),
	}
}

func (g *DynamicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s, err := g.settingsSvc.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}

	if s.GeminiAPIKey == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}

	client, err := g.cache.get(ctx, s.GeminiAPIKey)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(generationModel)
	model.SetTemperature(s.GenTemperature)
	if g.maxTokens > 0 {
		model.SetMaxOutputTokens(g.maxTokens)
	}

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	text := collectText(res)
	if text == "" {
		return "", fmt.Errorf("empty generation response")
	}
	return text, nil
}

func collectText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
