package ask

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"docsense/internal/answer"
	"docsense/internal/chunks"
	"docsense/internal/settings"
	"docsense/internal/vector"
)

type AskRequest struct {
	SessionID   string
	Question    string
	DocumentIDs []string
	LinkIDs     []string
}

type AskResult struct {
	Answer  string             `json:"answer"`
	Sources []chunks.SourceRef `json:"sources"`
}

type ChunkLister interface {
	ListByScope(ctx context.Context, sessionID string, documentIDs, linkIDs []string) ([]chunks.Chunk, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, sessionID, question, answerText string) error
}

type SettingsService interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Defaults are the env-config fallbacks used when runtime settings are
// unavailable or hold zero values. The timeouts bound the upstream
// model calls so a hung backend fails the request instead of pinning it.
type Defaults struct {
	TopK            int
	MinTerms        int
	MaxChars        int
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

type Service struct {
	chunkLister ChunkLister
	embedder    Embedder
	synth       *answer.Synthesizer
	history     HistoryRecorder
	settings    SettingsService
	defaults    Defaults
}

func NewService(cl ChunkLister, e Embedder, synth *answer.Synthesizer, h HistoryRecorder, set SettingsService, defaults Defaults) *Service {
	return &Service{
		chunkLister: cl,
		embedder:    e,
		synth:       synth,
		history:     h,
		settings:    set,
		defaults:    defaults,
	}
}

// Ask answers a question against the selected sources of one session.
// The index lives for the duration of this call only, so concurrent
// asks never share mutable state.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	if len(req.DocumentIDs) == 0 && len(req.LinkIDs) == 0 {
		return nil, ErrEmptySelection
	}

	scoped, err := s.chunkLister.ListByScope(ctx, req.SessionID, req.DocumentIDs, req.LinkIDs)
	if err != nil {
		return nil, err
	}
	if len(scoped) == 0 {
		return nil, ErrEmptyScope
	}

	topK, minTerms, maxChars := s.tuning(ctx)

	embedCtx, cancelEmbed := upstreamContext(ctx, s.defaults.EmbedTimeout)
	queryVec, err := s.embedder.Embed(embedCtx, req.Question)
	cancelEmbed()
	if err != nil {
		return nil, &UpstreamError{Service: "embedding", Err: err}
	}

	entries := make([]vector.Entry, len(scoped))
	for i, c := range scoped {
		entries[i] = vector.Entry{Content: c.Text, Vector: c.Embedding, Ref: c.Ref}
	}
	idx, err := vector.Build(entries)
	if err != nil {
		return nil, err
	}

	matches, err := idx.Search(queryVec, topK)
	if err != nil {
		return nil, err
	}

	genCtx, cancelGen := upstreamContext(ctx, s.defaults.GenerateTimeout)
	raw, err := s.synth.Synthesize(genCtx, req.Question, matches)
	cancelGen()
	if err != nil {
		return nil, &UpstreamError{Service: "generation", Err: err}
	}

	final, sources := answer.Postprocess(raw, req.Question, matches, answer.Options{
		MaxChars:       maxChars,
		MinSharedTerms: minTerms,
	})
	if sources == nil {
		sources = []chunks.SourceRef{}
	}

	if err := s.history.Record(ctx, req.SessionID, req.Question, final); err != nil {
		slog.WarnContext(ctx, "failed to record chat history", "error", err, "session_id", req.SessionID)
	}

	return &AskResult{Answer: final, Sources: sources}, nil
}

// upstreamContext derives a deadline-bound context for a model call.
// A non-positive timeout leaves the request context untouched.
func upstreamContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// tuning reads the runtime knobs, falling back to env-config defaults
// when the settings row is unreachable or a value is unset.
func (s *Service) tuning(ctx context.Context) (topK, minTerms, maxChars int) {
	topK, minTerms, maxChars = s.defaults.TopK, s.defaults.MinTerms, s.defaults.MaxChars

	set, err := s.settings.Get(ctx)
	if err != nil || set == nil {
		if err != nil {
			slog.WarnContext(ctx, "failed to load settings, using defaults", "error", err)
		}
		return topK, minTerms, maxChars
	}

	if set.SearchTopK > 0 {
		topK = set.SearchTopK
	}
	if set.AttributionMinTerms > 0 {
		minTerms = set.AttributionMinTerms
	}
	if set.AnswerMaxChars > 0 {
		maxChars = set.AnswerMaxChars
	}
	return topK, minTerms, maxChars
}
