package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pedaragy/pedaragy/vector"
)

// Index is a brute-force cosine-similarity index held entirely in memory.
// It is the reference implementation of the vector.Index contract and the
// backend used by tests: query ordering, recency tie-breaking and dimension
// checks are exact here.
type Index struct {
	mu         sync.RWMutex
	dimension  int
	seq        uint64
	namespaces map[string]map[string]*entry
}

type entry struct {
	rec vector.Record
	seq uint64 // insertion recency, larger is newer
}

func NewIndex(dimension int) *Index {
	return &Index{
		dimension:  dimension,
		namespaces: make(map[string]map[string]*entry),
	}
}

func (idx *Index) Upsert(ctx context.Context, namespace string, rec vector.Record) error {
	if !vector.ValidNamespace(namespace) {
		return vector.ErrInvalidNamespace
	}

	if rec.ID == "" {
		return vector.ErrInvalidRecord
	}

	if len(rec.Vector) != idx.dimension {
		return vector.ErrDimensionMismatch
	}

	// Copy before taking the lock so a caller mutating its slices cannot
	// expose a partially written vector to concurrent readers.
	stored := vector.Record{
		ID:      rec.ID,
		Vector:  append([]float32(nil), rec.Vector...),
		Payload: clonePayload(rec.Payload),
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ns, ok := idx.namespaces[namespace]
	if !ok {
		ns = make(map[string]*entry)
		idx.namespaces[namespace] = ns
	}

	idx.seq++
	ns[rec.ID] = &entry{rec: stored, seq: idx.seq}

	return nil
}

func (idx *Index) Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]string) ([]vector.Match, error) {
	if !vector.ValidNamespace(namespace) {
		return nil, vector.ErrInvalidNamespace
	}

	if len(vec) != idx.dimension {
		return nil, vector.ErrDimensionMismatch
	}

	if topK <= 0 {
		return []vector.Match{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ns, ok := idx.namespaces[namespace]
	if !ok {
		// No data yet is not an error for queries.
		return []vector.Match{}, nil
	}

	type scored struct {
		e     *entry
		score float32
	}

	candidates := make([]scored, 0, len(ns))
	for _, e := range ns {
		if !payloadMatches(e.rec.Payload, filter) {
			continue
		}

		candidates = append(candidates, scored{
			e:     e,
			score: vector.CosineSimilarity(vec, e.rec.Vector),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].e.seq > candidates[j].e.seq
	})

	if topK < len(candidates) {
		candidates = candidates[:topK]
	}

	matches := make([]vector.Match, len(candidates))
	for i, c := range candidates {
		matches[i] = vector.Match{
			ID:      c.e.rec.ID,
			Score:   c.score,
			Vector:  append([]float32(nil), c.e.rec.Vector...),
			Payload: clonePayload(c.e.rec.Payload),
		}
	}

	return matches, nil
}

func (idx *Index) Delete(ctx context.Context, namespace string, ids []string) error {
	if !vector.ValidNamespace(namespace) {
		return vector.ErrInvalidNamespace
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ns, ok := idx.namespaces[namespace]
	if !ok {
		return nil
	}

	for _, id := range ids {
		delete(ns, id)
	}

	return nil
}

func (idx *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	if !vector.ValidNamespace(namespace) {
		return vector.ErrInvalidNamespace
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.namespaces, namespace)
	return nil
}

func (idx *Index) Stats(ctx context.Context, namespace string) (vector.Stats, error) {
	if !vector.ValidNamespace(namespace) {
		return vector.Stats{}, vector.ErrInvalidNamespace
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ns, ok := idx.namespaces[namespace]
	if !ok {
		return vector.Stats{}, vector.ErrNamespaceNotFound
	}

	return vector.Stats{
		Count:     len(ns),
		Dimension: idx.dimension,
		Metric:    "cosine",
	}, nil
}

func clonePayload(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}

	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func payloadMatches(payload, filter map[string]string) bool {
	for k, want := range filter {
		if payload[k] != want {
			return false
		}
	}
	return true
}
