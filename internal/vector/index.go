// Package vector implements the per-request similarity index. An Index is
// built from the chunks of one query scope, searched once, and discarded;
// it is never shared between requests.
package vector

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"docsense/internal/chunks"
)

var ErrEmptyIndex = errors.New("no content for this selection")

// Entry is one indexed chunk.
type Entry struct {
	Content string
	Vector  []float32
	Ref     chunks.SourceRef
}

// Match is a retrieval hit, ranked by descending cosine similarity.
type Match struct {
	Content string
	Score   float64
	Ref     chunks.SourceRef
}

type Index struct {
	entries []Entry
	mags    []float64
	dim     int
}

// Build constructs an index over the given entries. It fails on an empty set
// (callers must surface that before touching any upstream service) and on
// inconsistent vector dimensions, which would make similarity meaningless.
func Build(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}

	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("entry 0 has an empty vector")
	}

	mags := make([]float64, len(entries))
	for i, e := range entries {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("inconsistent vector dims: entry %d has %d, want %d", i, len(e.Vector), dim)
		}
		mags[i] = magnitude(e.Vector)
	}

	return &Index{entries: entries, mags: mags, dim: dim}, nil
}

// Search returns the k entries most similar to query, best first. The scan
// is exhaustive; scopes are per-session and small, so O(n) per query is fine.
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dim %d does not match index dim %d", len(query), idx.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	qm := magnitude(query)
	if qm == 0 {
		return nil, nil
	}

	scored := make([]Match, 0, len(idx.entries))
	for i, e := range idx.entries {
		if idx.mags[i] == 0 {
			continue
		}
		score := dot(query, e.Vector) / (qm * idx.mags[i])
		if math.IsNaN(score) {
			continue
		}
		scored = append(scored, Match{Content: e.Content, Score: score, Ref: e.Ref})
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func (idx *Index) Len() int { return len(idx.entries) }

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func magnitude(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
