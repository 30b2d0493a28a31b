package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/pedaragy/pedaragy"
)

func AddEndpoints(group micro.Group, endpoints pedaragy.EndpointSet) {
	group.AddEndpoint("ask", AskHandler(endpoints.Ask))
	group.AddEndpoint("ingest_documents", IngestDocumentsHandler(endpoints.IngestDocuments))
	group.AddEndpoint("corpus_stats", CorpusStatsHandler(endpoints.CorpusStats))
	group.AddEndpoint("clear_corpus", ClearCorpusHandler(endpoints.ClearCorpus))
	group.AddEndpoint("cache_stats", CacheStatsHandler(endpoints.CacheStats))
	group.AddEndpoint("clear_cache", ClearCacheHandler(endpoints.ClearCache))
	group.AddEndpoint("compact_cache", CompactCacheHandler(endpoints.CompactCache))
}
