package settings

import (
	"context"
)

// Settings is the single-row runtime configuration. The retrieval and
// attribution knobs live here (not in env config) so they can be tuned
// against a labeled question set without redeploying.
type Settings struct {
	ID                  int     `json:"-"`
	GeminiAPIKey        string  `json:"gemini_api_key"`
	SearchTopK          int     `json:"search_top_k"`
	AttributionMinTerms int     `json:"attribution_min_terms"`
	AnswerMaxChars      int     `json:"answer_max_chars"`
	GenTemperature      float32 `json:"gen_temperature"`
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, set *Settings) error {
	return s.repo.Update(ctx, set)
}
