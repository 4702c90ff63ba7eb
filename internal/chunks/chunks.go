package chunks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RefKind discriminates the two source families a chunk can belong to.
type RefKind string

const (
	RefDocument RefKind = "file"
	RefLink     RefKind = "link"
)

var ErrInvalidRef = errors.New("source ref must point to exactly one of document or link")

// SourceRef identifies the document or link a chunk was extracted from.
// The fields are unexported so a ref can only be built through DocumentRef
// or LinkRef: a chunk pointing at both, or neither, is unrepresentable.
type SourceRef struct {
	kind RefKind
	id   string
}

func DocumentRef(id string) SourceRef {
	return SourceRef{kind: RefDocument, id: id}
}

func LinkRef(id string) SourceRef {
	return SourceRef{kind: RefLink, id: id}
}

func (r SourceRef) Kind() RefKind { return r.kind }
func (r SourceRef) ID() string    { return r.id }
func (r SourceRef) IsZero() bool  { return r.kind == "" && r.id == "" }

func (r SourceRef) String() string {
	return fmt.Sprintf("%s:%s", r.kind, r.id)
}

func (r SourceRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type RefKind `json:"type"`
		ID   string  `json:"id"`
	}{Type: r.kind, ID: r.id})
}

func (r *SourceRef) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type RefKind `json:"type"`
		ID   string  `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case RefDocument, RefLink:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRef, raw.Type)
	}
	if raw.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRef)
	}
	r.kind = raw.Type
	r.id = raw.ID
	return nil
}

// Chunk is one embedded segment of extracted source text. Chunks are written
// once at ingestion time and only ever removed, never updated.
type Chunk struct {
	ID        string
	SessionID string
	Ref       SourceRef
	Text      string
	Embedding []float32
	CreatedAt time.Time
}
