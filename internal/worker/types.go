package worker

import (
	"context"

	"docsense/internal/chunks"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Extractor interface {
	Extract(ctx context.Context, sourceType, location string) (string, error)
}

type ChunkStore interface {
	InsertBatch(ctx context.Context, batch []chunks.Chunk) error
	DeleteByRef(ctx context.Context, ref chunks.SourceRef) error
}

type SourceUpdater interface {
	UpdateStatus(ctx context.Context, id, status string) error
	MarkCompleted(ctx context.Context, id string, chunkCount int) error
}
