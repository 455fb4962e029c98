// Package memory provides an in-memory vector index.
// It mirrors the sqlite adapter's semantics without persistence and is
// used for tests and throwaway runs.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
	"github.com/oakum-labs/docq-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// entry is one stored chunk with its insertion sequence.
type entry struct {
	driven.IndexEntry
	seq int64
}

// VectorIndex is an in-memory cosine similarity index.
type VectorIndex struct {
	mu           sync.RWMutex
	dimensions   int
	entries      map[string]*entry
	fingerprints map[string]string
	nextSeq      int64
	closed       bool
}

// NewVectorIndex creates an index for vectors of the given dimension.
func NewVectorIndex(dimensions int) *VectorIndex {
	return &VectorIndex{
		dimensions:   dimensions,
		entries:      make(map[string]*entry),
		fingerprints: make(map[string]string),
	}
}

// Upsert inserts or replaces the entry for its chunk ID.
// A replaced entry keeps its original insertion sequence so ranking
// ties stay stable across re-ingestion.
func (x *VectorIndex) Upsert(_ context.Context, e driven.IndexEntry) error {
	if len(e.Embedding) != x.dimensions {
		return fmt.Errorf("%w: got %d dimensions, index has %d",
			domain.ErrEmbeddingDimensionMismatch, len(e.Embedding), x.dimensions)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if prev, ok := x.entries[e.ChunkID]; ok {
		x.entries[e.ChunkID] = &entry{IndexEntry: e, seq: prev.seq}
		return nil
	}
	x.entries[e.ChunkID] = &entry{IndexEntry: e, seq: x.nextSeq}
	x.nextSeq++
	return nil
}

// Query returns up to k entries ranked by descending cosine similarity,
// ties broken by insertion order.
func (x *VectorIndex) Query(_ context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	if len(vector) != x.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			domain.ErrEmbeddingDimensionMismatch, len(vector), x.dimensions)
	}
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	ordered := make([]*entry, 0, len(x.entries))
	for _, e := range x.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	sort.SliceStable(ordered, func(i, j int) bool {
		return cosine(vector, ordered[i].Embedding) > cosine(vector, ordered[j].Embedding)
	})

	if k > len(ordered) {
		k = len(ordered)
	}

	results := make([]domain.RetrievedChunk, 0, k)
	for _, e := range ordered[:k] {
		results = append(results, domain.RetrievedChunk{
			ChunkID: e.ChunkID,
			Content: e.Content,
			Score:   cosine(vector, e.Embedding),
		})
	}
	return results, nil
}

// Delete removes the entry for the chunk ID; absent IDs are a no-op.
func (x *VectorIndex) Delete(_ context.Context, chunkID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, chunkID)
	return nil
}

// ChunkIDsBySource lists chunk IDs for a source ordered by position.
func (x *VectorIndex) ChunkIDsBySource(_ context.Context, sourceID string) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var matched []*entry
	for _, e := range x.entries {
		if e.SourceID == sourceID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Position < matched[j].Position })

	ids := make([]string, len(matched))
	for i, e := range matched {
		ids[i] = e.ChunkID
	}
	return ids, nil
}

// SourceFingerprint returns the recorded content hash for a source.
func (x *VectorIndex) SourceFingerprint(_ context.Context, sourceID string) (string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.fingerprints[sourceID], nil
}

// SetSourceFingerprint records the content hash for a source.
func (x *VectorIndex) SetSourceFingerprint(_ context.Context, sourceID, hash string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.fingerprints[sourceID] = hash
	return nil
}

// Size returns the number of stored entries.
func (x *VectorIndex) Size(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

// Ping reports whether the index is usable.
func (x *VectorIndex) Ping(_ context.Context) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return fmt.Errorf("%w: index closed", domain.ErrIndexCorrupted)
	}
	return nil
}

// Close marks the index unusable.
func (x *VectorIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	return nil
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
