package chromem

import (
	"context"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/pedaragy/pedaragy/vector"
)

// Index adapts chromem-go to the vector.Index contract. Each namespace maps
// to one chromem collection. Chunk or answer text is stored as the document
// content, the rest of the payload as metadata.
//
// Chromem orders results by similarity only; equal scores come back in an
// unspecified order. The in-memory backend is the reference for recency
// tie-breaking.
type Index struct {
	db        *chromem.DB
	dimension int

	mu sync.Mutex // guards collection create/delete
}

func NewIndex(cfg vector.Config, dimension int) (*Index, error) {
	var db *chromem.DB
	if !cfg.Persistent {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, err
		}

		db = d
	}

	return &Index{db: db, dimension: dimension}, nil
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

	idx.mu.Lock()
	c, err := idx.db.GetOrCreateCollection(namespace, nil, nil)
	idx.mu.Unlock()
	if err != nil {
		return err
	}

	content, metadata := splitPayload(rec.Payload)

	doc := chromem.Document{
		ID:        rec.ID,
		Metadata:  metadata,
		Embedding: rec.Vector,
		Content:   content,
	}

	return c.AddDocument(ctx, doc)
}

func (idx *Index) Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]string) ([]vector.Match, error) {
	if !vector.ValidNamespace(namespace) {
		return nil, vector.ErrInvalidNamespace
	}

	if len(vec) != idx.dimension {
		return nil, vector.ErrDimensionMismatch
	}

	c := idx.db.GetCollection(namespace, nil)
	if c == nil {
		// No data yet is not an error for queries.
		return []vector.Match{}, nil
	}

	if topK > c.Count() {
		topK = c.Count()
	}

	if topK <= 0 {
		return []vector.Match{}, nil
	}

	results, err := c.QueryEmbedding(ctx, vec, topK, filter, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]vector.Match, len(results))
	for i, result := range results {
		matches[i] = vector.Match{
			ID:      result.ID,
			Score:   result.Similarity,
			Vector:  result.Embedding,
			Payload: mergePayload(result.Content, result.Metadata),
		}
	}

	return matches, nil
}

func (idx *Index) Delete(ctx context.Context, namespace string, ids []string) error {
	if !vector.ValidNamespace(namespace) {
		return vector.ErrInvalidNamespace
	}

	if len(ids) == 0 {
		return nil
	}

	c := idx.db.GetCollection(namespace, nil)
	if c == nil {
		return nil
	}

	return c.Delete(ctx, nil, nil, ids...)
}

func (idx *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	if !vector.ValidNamespace(namespace) {
		return vector.ErrInvalidNamespace
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.db.DeleteCollection(namespace)
}

func (idx *Index) Stats(ctx context.Context, namespace string) (vector.Stats, error) {
	if !vector.ValidNamespace(namespace) {
		return vector.Stats{}, vector.ErrInvalidNamespace
	}

	c := idx.db.GetCollection(namespace, nil)
	if c == nil {
		return vector.Stats{}, vector.ErrNamespaceNotFound
	}

	return vector.Stats{
		Count:     c.Count(),
		Dimension: idx.dimension,
		Metric:    "cosine",
	}, nil
}

// splitPayload separates the free-text part of a payload from its metadata.
// The "text" key becomes the chromem document content.
func splitPayload(payload map[string]string) (string, map[string]string) {
	content := payload["text"]

	metadata := make(map[string]string, len(payload))
	for k, v := range payload {
		if k == "text" {
			continue
		}

		metadata[k] = v
	}

	return content, metadata
}

func mergePayload(content string, metadata map[string]string) map[string]string {
	payload := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}

	if content != "" {
		payload["text"] = content
	}

	return payload
}
