package memory

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedaragy/pedaragy/vector"
)

// unitVec returns a unit vector whose cosine similarity with [1,0,0,0] is c.
func unitVec(c float64) []float32 {
	s := math.Sqrt(1 - c*c)
	return []float32{float32(c), float32(s), 0, 0}
}

func record(id string, vec []float32, payload map[string]string) vector.Record {
	return vector.Record{ID: id, Vector: vec, Payload: payload}
}

func TestUpsertIsIdempotentPerID(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	rec := record("doc_0", unitVec(1), map[string]string{"text": "first"})
	assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, rec))

	rec.Payload["text"] = "second"
	assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, rec))

	stats, err := idx.Stats(ctx, vector.NamespaceDocuments)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(1, stats.Count)

	matches, err := idx.Query(ctx, vector.NamespaceDocuments, unitVec(1), 1, nil)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(matches, 1)
	assert.Equal("second", matches[0].Payload["text"])
}

func TestQueryOrdersByScoreDescending(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	for i, c := range []float64{0.2, 0.9, 0.5} {
		id := fmt.Sprintf("doc_%d", i)
		assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, record(id, unitVec(c), nil)))
	}

	matches, err := idx.Query(ctx, vector.NamespaceDocuments, unitVec(1), 3, nil)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(matches, 3)
	assert.Equal("doc_1", matches[0].ID)
	assert.Equal("doc_2", matches[1].ID)
	assert.Equal("doc_0", matches[2].ID)
	assert.GreaterOrEqual(matches[0].Score, matches[1].Score)
	assert.GreaterOrEqual(matches[1].Score, matches[2].Score)
}

func TestQueryBreaksTiesByRecency(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, record("older", unitVec(0.8), nil)))
	assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, record("newer", unitVec(0.8), nil)))

	matches, err := idx.Query(ctx, vector.NamespaceDocuments, unitVec(1), 2, nil)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(matches, 2)
	assert.Equal("newer", matches[0].ID)
	assert.Equal("older", matches[1].ID)
}

func TestDimensionMismatch(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	err := idx.Upsert(ctx, vector.NamespaceDocuments, record("doc_0", []float32{1, 0}, nil))
	assert.ErrorIs(err, vector.ErrDimensionMismatch)

	_, err = idx.Query(ctx, vector.NamespaceDocuments, []float32{1, 0}, 1, nil)
	assert.ErrorIs(err, vector.ErrDimensionMismatch)
}

func TestInvalidNamespace(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	for _, ns := range []string{"", "Bad Namespace", "UPPER", "dot.dot"} {
		assert.ErrorIs(idx.Upsert(ctx, ns, record("doc_0", unitVec(1), nil)), vector.ErrInvalidNamespace)

		_, err := idx.Query(ctx, ns, unitVec(1), 1, nil)
		assert.ErrorIs(err, vector.ErrInvalidNamespace)

		_, err = idx.Stats(ctx, ns)
		assert.ErrorIs(err, vector.ErrInvalidNamespace)

		assert.ErrorIs(idx.Delete(ctx, ns, []string{"doc_0"}), vector.ErrInvalidNamespace)
		assert.ErrorIs(idx.DeleteNamespace(ctx, ns), vector.ErrInvalidNamespace)
	}
}

func TestUnknownNamespaceSemantics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	// Queries against a namespace nothing was written to are empty, not
	// errors.
	matches, err := idx.Query(ctx, "untouched", unitVec(1), 5, nil)
	assert.NoError(err)
	assert.Empty(matches)

	_, err = idx.Stats(ctx, "untouched")
	assert.ErrorIs(err, vector.ErrNamespaceNotFound)
}

func TestPayloadFilter(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	assert.NoError(idx.Upsert(ctx, vector.NamespaceCache, record("a", unitVec(0.9), map[string]string{"mode": "explain"})))
	assert.NoError(idx.Upsert(ctx, vector.NamespaceCache, record("b", unitVec(0.99), map[string]string{"mode": "quiz"})))

	matches, err := idx.Query(ctx, vector.NamespaceCache, unitVec(1), 5, map[string]string{"mode": "explain"})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(matches, 1)
	assert.Equal("a", matches[0].ID)
}

func TestDeleteAndDeleteNamespace(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, record("a", unitVec(0.1), nil)))
	assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, record("b", unitVec(0.2), nil)))

	assert.NoError(idx.Delete(ctx, vector.NamespaceDocuments, []string{"a", "missing"}))

	stats, err := idx.Stats(ctx, vector.NamespaceDocuments)
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	assert.Equal(1, stats.Count)

	assert.NoError(idx.DeleteNamespace(ctx, vector.NamespaceDocuments))

	_, err = idx.Stats(ctx, vector.NamespaceDocuments)
	assert.ErrorIs(err, vector.ErrNamespaceNotFound)
}

func TestTopKClamping(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("doc_%d", i)
		assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, record(id, unitVec(float64(i)*0.3), nil)))
	}

	matches, err := idx.Query(ctx, vector.NamespaceDocuments, unitVec(1), 10, nil)
	assert.NoError(err)
	assert.Len(matches, 3)

	matches, err = idx.Query(ctx, vector.NamespaceDocuments, unitVec(1), 0, nil)
	assert.NoError(err)
	assert.Empty(matches)
}

func TestMatchesAreDetachedCopies(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	idx := NewIndex(4)

	assert.NoError(idx.Upsert(ctx, vector.NamespaceDocuments, record("a", unitVec(1), map[string]string{"text": "original"})))

	matches, err := idx.Query(ctx, vector.NamespaceDocuments, unitVec(1), 1, nil)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	matches[0].Vector[0] = -1
	matches[0].Payload["text"] = "mutated"

	again, err := idx.Query(ctx, vector.NamespaceDocuments, unitVec(1), 1, nil)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("original", again[0].Payload["text"])
	assert.InDelta(1.0, again[0].Score, 1e-6)
}
