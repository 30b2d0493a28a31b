package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pedaragy/pedaragy"
)

func AddRouters(r *gin.Engine, endpoints pedaragy.EndpointSet, uploadDir string) {
	// RESTful API routes
	api := r.Group("/api")
	{
		api.POST("/ask", AskHandler(endpoints.Ask))
		api.POST("/documents", IngestDocumentsHandler(endpoints.IngestDocuments, uploadDir))
		api.GET("/corpus/stats", CorpusStatsHandler(endpoints.CorpusStats))
		api.DELETE("/corpus", ClearCorpusHandler(endpoints.ClearCorpus))
		api.GET("/cache/stats", CacheStatsHandler(endpoints.CacheStats))
		api.DELETE("/cache", ClearCacheHandler(endpoints.ClearCache))
		api.POST("/cache/compact", CompactCacheHandler(endpoints.CompactCache))
	}
}
