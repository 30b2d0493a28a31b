package nats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/pedaragy/pedaragy"
	"github.com/pedaragy/pedaragy/vector"
)

func AskHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req pedaragy.AskRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			r.Error(codeFor(err), err.Error(), nil)
			return
		}

		answer, ok := resp.(*pedaragy.Answer)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(answer)
	}
}

func IngestDocumentsHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req pedaragy.IngestDocumentsRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			r.Error(codeFor(err), err.Error(), nil)
			return
		}

		report, ok := resp.(*pedaragy.IngestReport)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(report)
	}
}

func CorpusStatsHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()

		resp, err := endpoint(ctx, nil)
		if err != nil {
			r.Error(codeFor(err), err.Error(), nil)
			return
		}

		stats, ok := resp.(vector.Stats)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(&stats)
	}
}

func ClearCorpusHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()

		if _, err := endpoint(ctx, nil); err != nil {
			r.Error(codeFor(err), err.Error(), nil)
			return
		}

		r.Respond([]byte("OK"))
	}
}

func CacheStatsHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()

		resp, err := endpoint(ctx, nil)
		if err != nil {
			r.Error(codeFor(err), err.Error(), nil)
			return
		}

		stats, ok := resp.(pedaragy.CacheStats)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(&stats)
	}
}

func ClearCacheHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()

		if _, err := endpoint(ctx, nil); err != nil {
			r.Error(codeFor(err), err.Error(), nil)
			return
		}

		r.Respond([]byte("OK"))
	}
}

func CompactCacheHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()

		resp, err := endpoint(ctx, nil)
		if err != nil {
			r.Error(codeFor(err), err.Error(), nil)
			return
		}

		result, ok := resp.(pedaragy.CompactCacheResponse)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.RespondJSON(&result)
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, pedaragy.ErrInvalidMode),
		errors.Is(err, pedaragy.ErrEmptyQuestion):
		return "400"

	default:
		return "417"
	}
}
