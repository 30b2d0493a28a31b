package pedaragy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pedaragy/pedaragy/chunker"
	"github.com/pedaragy/pedaragy/embedding"
	"github.com/pedaragy/pedaragy/extract"
	"github.com/pedaragy/pedaragy/llm"
	"github.com/pedaragy/pedaragy/vector"
)

// Service defines the core logic of the question-answering pipeline.
type Service interface {

	// Close gracefully shuts down the service.
	Close() error

	// Ask answers a question, serving from the semantic cache when a
	// sufficiently similar question was answered before.
	Ask(ctx context.Context, question string, mode Mode) (*Answer, error)

	// IngestDocuments extracts, chunks, embeds and indexes the given
	// files. One bad file never aborts the rest of the batch.
	IngestDocuments(ctx context.Context, paths []string) (*IngestReport, error)

	// CorpusStats reports the size of the document namespace.
	CorpusStats(ctx context.Context) (vector.Stats, error)

	// ClearCorpus removes every ingested chunk.
	ClearCorpus(ctx context.Context) error

	// CacheStats reports the size of the semantic cache.
	CacheStats(ctx context.Context) (CacheStats, error)

	// ClearCache removes every cached answer.
	ClearCache(ctx context.Context) error

	// CompactCache merges near-duplicate cache entries and returns the
	// number of removed entries.
	CompactCache(ctx context.Context) (int, error)
}

type ServiceMiddleware func(Service) Service

func NewService(cfg Config, index vector.Index, embedder embedding.Provider, generator llm.Generator) (Service, error) {
	cfg.ApplyDefaults()

	log := zap.L().With(
		zap.String("service", "pedaragy"),
	)

	// A provider/index dimension mismatch is a configuration error and
	// fatal at startup, not at first request.
	if embedder.Dimension() != cfg.Dimension {
		return nil, fmt.Errorf("%w: embedding provider produces %d dimensions, index is configured for %d",
			vector.ErrDimensionMismatch, embedder.Dimension(), cfg.Dimension)
	}

	ch, err := chunker.New(cfg.ChunkSize, *cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	return &service{
		cfg:        cfg,
		index:      index,
		embedder:   embedder,
		generator:  generator,
		cache:      NewSemanticCache(index, cfg.Dimension, cfg.CacheThreshold, log),
		chunker:    ch,
		extractors: extract.DefaultRegistry(),
		log:        log,
	}, nil
}

type service struct {
	cfg        Config
	index      vector.Index
	embedder   embedding.Provider
	generator  llm.Generator
	cache      *SemanticCache
	chunker    *chunker.Chunker
	extractors *extract.Registry

	inflight singleflight.Group

	log *zap.Logger
}

func (svc *service) Close() error {
	return nil
}

func (svc *service) Ask(ctx context.Context, question string, mode Mode) (*Answer, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	if !svc.cfg.DedupeInFlight {
		return svc.ask(ctx, question, mode)
	}

	// Collapse identical concurrent questions so only one of them reaches
	// the generation backend. Purely an optimization: without it both
	// would generate and both would store, which is bounded and harmless.
	key := askKey(question, mode)

	// The shared execution is detached from the leader's cancellation so a
	// cancelled leader cannot fail the collapsed followers; per-stage
	// timeouts still bound it. Each caller keeps honoring its own context.
	ch := svc.inflight.DoChan(key, func() (any, error) {
		return svc.ask(context.WithoutCancel(ctx), question, mode)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*Answer), nil
	}
}

func (svc *service) ask(ctx context.Context, question string, mode Mode) (*Answer, error) {
	log := svc.log.With(
		zap.String("action", "ask"),
		zap.String("mode", mode.String()),
	)

	questionEmbedding, err := svc.embed(ctx, question)
	if err != nil {
		return nil, err
	}

	match, err := svc.cache.Lookup(ctx, questionEmbedding, mode, 0)
	if err != nil {
		// A broken cache lookup degrades to a miss; it must never fail
		// a request the pipeline can still answer.
		log.Warn("cache lookup failed", zap.Error(err))
	}

	if match != nil {
		log.Info("cache hit",
			zap.Float32("score", match.Score),
		)

		return &Answer{
			Answer:          match.Entry.AnswerText,
			Mode:            mode,
			Cached:          true,
			SimilarityScore: match.Score,
			OriginalQuery:   match.Entry.QuestionText,
		}, nil
	}

	chunks, err := svc.retrieve(ctx, questionEmbedding)
	if err != nil {
		return nil, err
	}

	contextText := BuildContext(chunks, svc.cfg.ContextBudget)

	prompt, err := BuildPrompt(mode, contextText, question)
	if err != nil {
		return nil, err
	}

	answer, err := svc.generate(ctx, prompt, mode)
	if err != nil {
		return nil, err
	}

	// The store completes even when the caller has already gone away; a
	// cache entry is never partially written or rolled back.
	storeCtx := context.WithoutCancel(ctx)

	if _, err := svc.cache.Store(storeCtx, question, questionEmbedding, answer, mode); err != nil {
		// Non-fatal: the answer is already computed and must reach the
		// caller.
		log.Warn(ErrCacheStore.Error(), zap.Error(err))
	}

	log.Info("answer generated",
		zap.Int("context_chunks", len(chunks)),
	)

	return &Answer{
		Answer: answer,
		Mode:   mode,
		Cached: false,
	}, nil
}

func (svc *service) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.cfg.Timeouts.Embedding.Duration())
	defer cancel()

	vec, err := svc.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	return vec, nil
}

func (svc *service) retrieve(ctx context.Context, questionEmbedding []float32) ([]DocumentChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.cfg.Timeouts.Retrieval.Duration())
	defer cancel()

	matches, err := svc.index.Query(ctx, vector.NamespaceDocuments, questionEmbedding, svc.cfg.TopK, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	chunks := make([]DocumentChunk, len(matches))
	for i, m := range matches {
		chunks[i] = ChunkFromMatch(m)
	}

	return chunks, nil
}

func (svc *service) generate(ctx context.Context, prompt string, mode Mode) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.cfg.Timeouts.Generation.Duration())
	defer cancel()

	answer, err := svc.generator.Generate(ctx, prompt, mode.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return answer, nil
}

func (svc *service) IngestDocuments(ctx context.Context, paths []string) (*IngestReport, error) {
	log := svc.log.With(
		zap.String("action", "ingest_documents"),
	)

	report := &IngestReport{}

	for _, path := range paths {
		log := log.With(
			zap.String("file", filepath.Base(path)),
		)

		n, err := svc.ingestFile(ctx, path)
		if err != nil {
			log.Error(err.Error())

			report.Failed = append(report.Failed, IngestFailure{
				File:   filepath.Base(path),
				Reason: err.Error(),
			})
			continue
		}

		report.ProcessedCount++
		report.TotalChunks += n

		log.Info("file ingested", zap.Int("chunks", n))
	}

	return report, nil
}

func (svc *service) ingestFile(ctx context.Context, path string) (int, error) {
	text, err := svc.extractors.Extract(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	docID := filepath.Base(path)

	var texts []string
	for chunk := range svc.chunker.Chunk(text) {
		texts = append(texts, chunk)
	}

	var embeddings [][]float32
	if len(texts) > 0 {
		ectx, cancel := context.WithTimeout(ctx, svc.cfg.Timeouts.Embedding.Duration())
		defer cancel()

		embeddings, err = svc.embedder.EmbedBatch(ectx, texts)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
	}

	// A re-ingested document replaces its previous version wholesale. Only
	// after the new chunks are embedded are the old ones removed, so a
	// failed embedding never loses the indexed document.
	if err := svc.deleteDocumentChunks(ctx, docID); err != nil {
		return 0, fmt.Errorf("clearing previous chunks: %w", err)
	}

	for i, text := range texts {
		chunk := DocumentChunk{
			ID:          fmt.Sprintf("%s_%d", docID, i),
			SourceDocID: docID,
			Ordinal:     i,
			Text:        text,
			Embedding:   embeddings[i],
		}

		if err := svc.index.Upsert(ctx, vector.NamespaceDocuments, chunk.Record()); err != nil {
			return 0, err
		}
	}

	return len(texts), nil
}

// deleteDocumentChunks removes every chunk of a document from the documents
// namespace, matched by its source payload.
func (svc *service) deleteDocumentChunks(ctx context.Context, docID string) error {
	stats, err := svc.index.Stats(ctx, vector.NamespaceDocuments)
	if err != nil {
		if errors.Is(err, vector.ErrNamespaceNotFound) {
			return nil
		}

		return err
	}

	if stats.Count == 0 {
		return nil
	}

	// Any query vector retrieves all of the document's chunks when topK
	// covers the whole namespace.
	seed := make([]float32, svc.cfg.Dimension)
	seed[0] = 1

	filter := map[string]string{"source": docID}

	matches, err := svc.index.Query(ctx, vector.NamespaceDocuments, seed, stats.Count, filter)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	return svc.index.Delete(ctx, vector.NamespaceDocuments, ids)
}

func (svc *service) CorpusStats(ctx context.Context) (vector.Stats, error) {
	stats, err := svc.index.Stats(ctx, vector.NamespaceDocuments)
	if err != nil {
		if errors.Is(err, vector.ErrNamespaceNotFound) {
			// Nothing ingested yet.
			return vector.Stats{
				Dimension: svc.cfg.Dimension,
				Metric:    "cosine",
			}, nil
		}

		return vector.Stats{}, err
	}

	return stats, nil
}

func (svc *service) ClearCorpus(ctx context.Context) error {
	return svc.index.DeleteNamespace(ctx, vector.NamespaceDocuments)
}

func (svc *service) CacheStats(ctx context.Context) (CacheStats, error) {
	return svc.cache.Stats(ctx)
}

func (svc *service) ClearCache(ctx context.Context) error {
	return svc.cache.Clear(ctx)
}

func (svc *service) CompactCache(ctx context.Context) (int, error) {
	return svc.cache.Compact(ctx, svc.cfg.CompactThreshold)
}

func askKey(question string, mode Mode) string {
	sum := sha256.Sum256([]byte(mode.String() + "\x00" + question))
	return hex.EncodeToString(sum[:])
}
