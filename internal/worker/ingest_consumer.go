package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"docsense/features/job"
	"docsense/internal/chunks"
	"docsense/internal/middleware"
	"docsense/internal/text"
)

const (
	defaultEmbedTimeout = 60 * time.Second

	// Mirrors the go-nsq consumer default so the last delivery is
	// recognized before nsqd discards the message.
	defaultMaxAttempts = 5
)

// IngestorConfig carries the ingestion tunables from env config.
// Zero values fall back to the defaults above.
type IngestorConfig struct {
	ChunkSize    int
	Overlap      int
	EmbeddingDim int
	EmbedTimeout time.Duration
	MaxAttempts  uint16
}

type Ingestor struct {
	extractor    Extractor
	embedder     Embedder
	store        ChunkStore
	updater      SourceUpdater
	jobRepo      job.Repository
	chunkSize    int
	overlap      int
	embeddingDim int
	embedTimeout time.Duration
	maxAttempts  uint16
}

func NewIngestor(ex Extractor, e Embedder, s ChunkStore, u SourceUpdater, j job.Repository, cfg IngestorConfig) *Ingestor {
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = defaultEmbedTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Ingestor{
		extractor:    ex,
		embedder:     e,
		store:        s,
		updater:      u,
		jobRepo:      j,
		chunkSize:    cfg.ChunkSize,
		overlap:      cfg.Overlap,
		embeddingDim: cfg.EmbeddingDim,
		embedTimeout: cfg.EmbedTimeout,
		maxAttempts:  cfg.MaxAttempts,
	}
}

func (h *Ingestor) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload IngestTaskPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	if payload.SourceID == "" || payload.SessionID == "" {
		slog.ErrorContext(ctx, "missing required fields, dropping", "source_id", payload.SourceID, "session_id", payload.SessionID)
		return nil
	}

	ref, err := refFor(payload.Type, payload.SourceID)
	if err != nil {
		slog.ErrorContext(ctx, "unknown source type, dropping", "type", payload.Type, "source_id", payload.SourceID)
		return nil
	}

	content, err := h.extractor.Extract(ctx, payload.Type, payload.Location)
	if err != nil {
		// Extraction errors are not transient enough to be worth a
		// requeue loop: record the job and let the operator retry.
		slog.ErrorContext(ctx, "extraction failed", "error", err, "source_id", payload.SourceID)
		h.recordFailure(ctx, &payload, m.Body, err.Error())
		return nil
	}

	if payload.Resync {
		// Replace semantics: old chunks go away even when the new
		// content turns out to be empty.
		if err := h.store.DeleteByRef(ctx, ref); err != nil {
			slog.ErrorContext(ctx, "failed to delete stale chunks", "error", err, "source_id", payload.SourceID)
			return h.failTransient(ctx, m, &payload, err)
		}
	}

	pieces := text.Chunk(content, h.chunkSize, h.overlap)
	if len(pieces) == 0 {
		slog.WarnContext(ctx, "source produced no chunks", "source_id", payload.SourceID)
		if err := h.updater.MarkCompleted(ctx, payload.SourceID, 0); err != nil {
			slog.WarnContext(ctx, "failed to mark source completed", "error", err)
		}
		return nil
	}

	// Embed everything up front so a mid-batch upstream failure never
	// leaves a half-ingested source behind.
	batch := make([]chunks.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		embedCtx, cancel := context.WithTimeout(ctx, h.embedTimeout)
		vector, err := h.embedder.Embed(embedCtx, piece)
		cancel()
		if err != nil {
			slog.ErrorContext(ctx, "embedding failed", "error", err, "source_id", payload.SourceID, "chunk_index", i)
			return h.failTransient(ctx, m, &payload, err)
		}
		if h.embeddingDim > 0 && len(vector) != h.embeddingDim {
			// A dimension mismatch means the model and the stored
			// corpus disagree; redelivery cannot fix that.
			slog.ErrorContext(ctx, "embedding dimension mismatch", "got", len(vector), "want", h.embeddingDim, "source_id", payload.SourceID)
			h.recordFailure(ctx, &payload, m.Body, fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(vector), h.embeddingDim))
			return nil
		}
		batch = append(batch, chunks.Chunk{
			SessionID: payload.SessionID,
			Ref:       ref,
			Text:      piece,
			Embedding: vector,
		})
	}

	if err := h.store.InsertBatch(ctx, batch); err != nil {
		slog.ErrorContext(ctx, "failed to persist chunks", "error", err, "source_id", payload.SourceID)
		return h.failTransient(ctx, m, &payload, err)
	}

	if err := h.updater.MarkCompleted(ctx, payload.SourceID, len(batch)); err != nil {
		slog.WarnContext(ctx, "failed to mark source completed", "error", err, "source_id", payload.SourceID)
	}

	slog.InfoContext(ctx, "source ingested", "source_id", payload.SourceID, "chunks", len(batch))
	return nil
}

// failTransient requeues a transient failure until the delivery budget
// runs out; only the final attempt records a failed_jobs row, so a
// flapping upstream does not insert one row per redelivery.
func (h *Ingestor) failTransient(ctx context.Context, m *nsq.Message, payload *IngestTaskPayload, cause error) error {
	attempts := m.Attempts
	if attempts == 0 {
		attempts = 1
	}
	if attempts < h.maxAttempts {
		slog.WarnContext(ctx, "transient ingestion failure, requeueing", "source_id", payload.SourceID, "attempt", attempts, "max_attempts", h.maxAttempts)
		return cause
	}

	slog.ErrorContext(ctx, "ingestion failed on final attempt", "source_id", payload.SourceID, "attempts", attempts)
	h.recordFailure(ctx, payload, m.Body, cause.Error())
	return nil
}

func (h *Ingestor) recordFailure(ctx context.Context, payload *IngestTaskPayload, body []byte, errMsg string) {
	if err := h.updater.UpdateStatus(ctx, payload.SourceID, "failed"); err != nil {
		slog.WarnContext(ctx, "failed to update source status to failed", "error", err)
	}

	failedJob := &job.Job{
		SourceID: payload.SourceID,
		Handler:  "ingestion-worker",
		Payload:  json.RawMessage(body),
		Error:    errMsg,
	}
	if err := h.jobRepo.Save(ctx, failedJob); err != nil {
		slog.ErrorContext(ctx, "failed to save failed job", "error", err)
	} else {
		slog.InfoContext(ctx, "saved failed job for retry", "job_id", failedJob.ID)
	}
}

func refFor(sourceType, id string) (chunks.SourceRef, error) {
	switch sourceType {
	case "file":
		return chunks.DocumentRef(id), nil
	case "link":
		return chunks.LinkRef(id), nil
	}
	return chunks.SourceRef{}, chunks.ErrInvalidRef
}
