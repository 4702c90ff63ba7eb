package extract

import (
	"context"
	"fmt"
)

// Extractor turns a source location (a stored file path or an URL)
// into plain text ready for chunking.
type Extractor interface {
	Extract(ctx context.Context, location string) (string, error)
}

// Registry dispatches to an extractor by source type.
type Registry struct {
	byType map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]Extractor)}
}

func (r *Registry) Register(sourceType string, e Extractor) {
	r.byType[sourceType] = e
}

func (r *Registry) Extract(ctx context.Context, sourceType, location string) (string, error) {
	e, ok := r.byType[sourceType]
	if !ok {
		return "", fmt.Errorf("no extractor registered for source type %q", sourceType)
	}
	return e.Extract(ctx, location)
}
