package logger

import (
	"context"
	"log/slog"

	"docsense/internal/middleware"
)

// ContextHandler decorates every record with the correlation ID found
// in the context. HTTP requests get theirs from the middleware; the
// ingestion worker restores the one carried in the ingest.task payload,
// so an upload and its asynchronous ingestion share one trace.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(middleware.CorrelationKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}
