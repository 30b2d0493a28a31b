package pedaragy

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pedaragy/pedaragy/vector"
)

// SemanticCache decides cache hit/miss over the cache namespace of the
// vector index. It holds no private copies of entries; every decision runs
// against the index.
type SemanticCache struct {
	index     vector.Index
	dimension int
	threshold float32
	log       *zap.Logger
}

func NewSemanticCache(index vector.Index, dimension int, threshold float32, log *zap.Logger) *SemanticCache {
	return &SemanticCache{
		index:     index,
		dimension: dimension,
		threshold: threshold,
		log: log.With(
			zap.String("component", "semantic_cache"),
		),
	}
}

// Lookup returns the best cached match for the question embedding in the
// given mode, or nil on a miss. Only the single best match decides hit or
// miss; a tie at the threshold favors the most recently stored entry.
func (c *SemanticCache) Lookup(ctx context.Context, questionEmbedding []float32, mode Mode, threshold float32) (*SimilarityMatch, error) {
	if threshold <= 0 {
		threshold = c.threshold
	}

	filter := map[string]string{"mode": mode.String()}

	matches, err := c.index.Query(ctx, vector.NamespaceCache, questionEmbedding, 1, filter)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, nil
	}

	best := matches[0]
	if best.Score < threshold {
		c.log.Debug("best cache candidate below threshold",
			zap.Float32("score", best.Score),
			zap.Float32("threshold", threshold),
		)

		return nil, nil
	}

	return &SimilarityMatch{
		Entry: CacheEntryFromMatch(best),
		Score: best.Score,
	}, nil
}

// Store writes a new entry under a fresh id. It never overwrites: a
// near-duplicate of an older question becomes a second entry, and duplicate
// growth is bounded by Compact, not by silent replacement.
func (c *SemanticCache) Store(ctx context.Context, questionText string, questionEmbedding []float32, answerText string, mode Mode) (*CacheEntry, error) {
	entry := CacheEntry{
		ID:                "cache_" + uuid.NewString(),
		QuestionText:      questionText,
		QuestionEmbedding: questionEmbedding,
		AnswerText:        answerText,
		Mode:              mode,
		CreatedAt:         time.Now().UTC(),
	}

	if err := c.index.Upsert(ctx, vector.NamespaceCache, entry.Record()); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (c *SemanticCache) Clear(ctx context.Context) error {
	return c.index.DeleteNamespace(ctx, vector.NamespaceCache)
}

func (c *SemanticCache) Stats(ctx context.Context) (CacheStats, error) {
	stats, err := c.index.Stats(ctx, vector.NamespaceCache)
	if err != nil {
		if errors.Is(err, vector.ErrNamespaceNotFound) {
			// Nothing cached yet.
			return CacheStats{
				Dimension: c.dimension,
				Metric:    "cosine",
				Threshold: c.threshold,
			}, nil
		}

		return CacheStats{}, err
	}

	return CacheStats{
		EntryCount: stats.Count,
		Dimension:  stats.Dimension,
		Metric:     stats.Metric,
		Threshold:  c.threshold,
	}, nil
}

// Compact merges near-duplicate entries per mode: of any group with pairwise
// similarity at or above the threshold, the most recent entry survives.
// Returns the number of removed entries.
func (c *SemanticCache) Compact(ctx context.Context, threshold float32) (int, error) {
	stats, err := c.index.Stats(ctx, vector.NamespaceCache)
	if err != nil {
		if errors.Is(err, vector.ErrNamespaceNotFound) {
			return 0, nil
		}

		return 0, err
	}

	if stats.Count < 2 {
		return 0, nil
	}

	// Any query vector retrieves all entries of a mode when topK covers the
	// whole namespace; the scores are irrelevant here, only the stored
	// embeddings are.
	seed := make([]float32, c.dimension)
	seed[0] = 1

	removed := 0

	for _, mode := range []Mode{ModeExplain, ModeQuiz, ModeHint} {
		filter := map[string]string{"mode": mode.String()}

		matches, err := c.index.Query(ctx, vector.NamespaceCache, seed, stats.Count, filter)
		if err != nil {
			return removed, err
		}

		if len(matches) < 2 {
			continue
		}

		entries := make([]CacheEntry, len(matches))
		for i, m := range matches {
			entries[i] = CacheEntryFromMatch(m)
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		})

		var (
			kept   [][]float32
			remove []string
		)

		for _, e := range entries {
			duplicate := false
			for _, k := range kept {
				if vector.CosineSimilarity(e.QuestionEmbedding, k) >= threshold {
					duplicate = true
					break
				}
			}

			if duplicate {
				remove = append(remove, e.ID)
			} else {
				kept = append(kept, e.QuestionEmbedding)
			}
		}

		if len(remove) == 0 {
			continue
		}

		if err := c.index.Delete(ctx, vector.NamespaceCache, remove); err != nil {
			return removed, err
		}

		removed += len(remove)

		c.log.Info("compacted cache entries",
			zap.String("mode", mode.String()),
			zap.Int("removed", len(remove)),
		)
	}

	return removed, nil
}
