package pedaragy

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	Ask             endpoint.Endpoint
	IngestDocuments endpoint.Endpoint
	CorpusStats     endpoint.Endpoint
	ClearCorpus     endpoint.Endpoint
	CacheStats      endpoint.Endpoint
	ClearCache      endpoint.Endpoint
	CompactCache    endpoint.Endpoint
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	Mode     string `json:"mode" binding:"required"`
}

func AskEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AskRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		mode, err := ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}

		return svc.Ask(ctx, req.Question, mode)
	}
}

type IngestDocumentsRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

func IngestDocumentsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IngestDocumentsRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.IngestDocuments(ctx, req.Paths)
	}
}

func CorpusStatsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.CorpusStats(ctx)
	}
}

func ClearCorpusEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return nil, svc.ClearCorpus(ctx)
	}
}

func CacheStatsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.CacheStats(ctx)
	}
}

func ClearCacheEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return nil, svc.ClearCache(ctx)
	}
}

type CompactCacheResponse struct {
	Removed int `json:"removed"`
}

func CompactCacheEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		removed, err := svc.CompactCache(ctx)
		if err != nil {
			return nil, err
		}

		return CompactCacheResponse{Removed: removed}, nil
	}
}
