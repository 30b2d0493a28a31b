package vector

import (
	"context"
	"errors"
	"math"
	"regexp"
)

var (
	ErrInvalidNamespace   = errors.New("invalid namespace name")
	ErrNamespaceNotFound  = errors.New("namespace not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrUnsupportedBackend = errors.New("unsupported vector backend")
)

const (
	NamespaceDocuments = "documents"
	NamespaceCache     = "cache"
)

type Config struct {
	Backend    string `yaml:"backend"` // "memory" or "chromem"
	Persistent bool   `yaml:"persistent"`
	Path       string `yaml:"path"`
}

// Record is a stored (vector, payload) pair. Upserting an existing ID
// replaces both vector and payload.
type Record struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Match is a read-only snapshot of a query result. Vector is the stored
// embedding of the matched record, not the query vector.
type Match struct {
	ID      string            `json:"id"`
	Score   float32           `json:"score"`
	Vector  []float32         `json:"vector,omitempty"`
	Payload map[string]string `json:"payload,omitempty"`
}

type Stats struct {
	Count     int    `json:"count"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

// Index is a similarity-searchable store of records partitioned into
// logical namespaces.
type Index interface {

	// Upsert inserts or replaces a record in the namespace.
	Upsert(ctx context.Context, namespace string, rec Record) error

	// Query returns up to topK matches ordered by descending cosine
	// similarity. Ties are broken by insertion recency, most recently
	// upserted first. A valid namespace that has never been upserted
	// yields an empty result, not an error. A non-nil filter keeps only
	// records whose payload contains every filter pair.
	Query(ctx context.Context, namespace string, vec []float32, topK int, filter map[string]string) ([]Match, error)

	// Delete removes the given IDs. Unknown IDs are ignored.
	Delete(ctx context.Context, namespace string, ids []string) error

	// DeleteNamespace removes the namespace and everything in it.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Stats reports the namespace size. ErrNamespaceNotFound for a
	// namespace that has never received an upsert.
	Stats(ctx context.Context, namespace string) (Stats, error)
}

var namespaceName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidNamespace reports whether name is a well-formed namespace name.
// A malformed name is invalid input on every operation, as opposed to a
// well-formed namespace that simply holds no data yet.
func ValidNamespace(name string) bool {
	return namespaceName.MatchString(name)
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. A zero vector scores 0 against everything.
func CosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
