package pedaragy

import (
	"context"

	"go.uber.org/zap"

	"github.com/pedaragy/pedaragy/vector"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "pedaragy"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) Ask(ctx context.Context, question string, mode Mode) (*Answer, error) {
	log := mw.log.With(
		zap.String("action", "ask"),
		zap.String("mode", mode.String()),
	)

	answer, err := mw.next.Ask(ctx, question, mode)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("question answered",
		zap.Bool("cached", answer.Cached),
	)

	return answer, nil
}

func (mw *loggingMiddleware) IngestDocuments(ctx context.Context, paths []string) (*IngestReport, error) {
	log := mw.log.With(
		zap.String("action", "ingest_documents"),
		zap.Int("files", len(paths)),
	)

	report, err := mw.next.IngestDocuments(ctx, paths)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("documents ingested",
		zap.Int("processed", report.ProcessedCount),
		zap.Int("chunks", report.TotalChunks),
		zap.Int("failed", len(report.Failed)),
	)

	return report, nil
}

func (mw *loggingMiddleware) CorpusStats(ctx context.Context) (vector.Stats, error) {
	log := mw.log.With(
		zap.String("action", "corpus_stats"),
	)

	stats, err := mw.next.CorpusStats(ctx)
	if err != nil {
		log.Error(err.Error())
		return vector.Stats{}, err
	}

	log.Info("corpus stats", zap.Int("count", stats.Count))
	return stats, nil
}

func (mw *loggingMiddleware) ClearCorpus(ctx context.Context) error {
	log := mw.log.With(
		zap.String("action", "clear_corpus"),
	)

	err := mw.next.ClearCorpus(ctx)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("corpus cleared")
	return nil
}

func (mw *loggingMiddleware) CacheStats(ctx context.Context) (CacheStats, error) {
	log := mw.log.With(
		zap.String("action", "cache_stats"),
	)

	stats, err := mw.next.CacheStats(ctx)
	if err != nil {
		log.Error(err.Error())
		return CacheStats{}, err
	}

	log.Info("cache stats", zap.Int("entries", stats.EntryCount))
	return stats, nil
}

func (mw *loggingMiddleware) ClearCache(ctx context.Context) error {
	log := mw.log.With(
		zap.String("action", "clear_cache"),
	)

	err := mw.next.ClearCache(ctx)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("cache cleared")
	return nil
}

func (mw *loggingMiddleware) CompactCache(ctx context.Context) (int, error) {
	log := mw.log.With(
		zap.String("action", "compact_cache"),
	)

	removed, err := mw.next.CompactCache(ctx)
	if err != nil {
		log.Error(err.Error())
		return 0, err
	}

	log.Info("cache compacted", zap.Int("removed", removed))
	return removed, nil
}
