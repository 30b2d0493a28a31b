package pedaragy

import (
	"context"
	"errors"

	"github.com/pedaragy/pedaragy/vector"
)

// ProxyMiddleware backs the Service interface with a remote EndpointSet,
// letting a client talk to a pedaragy instance over NATS as if it were
// local.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func (mw *proxyMiddleware) Ask(ctx context.Context, question string, mode Mode) (*Answer, error) {
	req := AskRequest{
		Question: question,
		Mode:     mode.String(),
	}

	resp, err := mw.endpoints.Ask(ctx, req)
	if err != nil {
		return nil, err
	}

	answer, ok := resp.(*Answer)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return answer, nil
}

func (mw *proxyMiddleware) IngestDocuments(ctx context.Context, paths []string) (*IngestReport, error) {
	req := IngestDocumentsRequest{
		Paths: paths,
	}

	resp, err := mw.endpoints.IngestDocuments(ctx, req)
	if err != nil {
		return nil, err
	}

	report, ok := resp.(*IngestReport)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return report, nil
}

func (mw *proxyMiddleware) CorpusStats(ctx context.Context) (vector.Stats, error) {
	resp, err := mw.endpoints.CorpusStats(ctx, nil)
	if err != nil {
		return vector.Stats{}, err
	}

	stats, ok := resp.(vector.Stats)
	if !ok {
		return vector.Stats{}, errors.New("invalid response type")
	}

	return stats, nil
}

func (mw *proxyMiddleware) ClearCorpus(ctx context.Context) error {
	_, err := mw.endpoints.ClearCorpus(ctx, nil)
	return err
}

func (mw *proxyMiddleware) CacheStats(ctx context.Context) (CacheStats, error) {
	resp, err := mw.endpoints.CacheStats(ctx, nil)
	if err != nil {
		return CacheStats{}, err
	}

	stats, ok := resp.(CacheStats)
	if !ok {
		return CacheStats{}, errors.New("invalid response type")
	}

	return stats, nil
}

func (mw *proxyMiddleware) ClearCache(ctx context.Context) error {
	_, err := mw.endpoints.ClearCache(ctx, nil)
	return err
}

func (mw *proxyMiddleware) CompactCache(ctx context.Context) (int, error) {
	resp, err := mw.endpoints.CompactCache(ctx, nil)
	if err != nil {
		return 0, err
	}

	result, ok := resp.(CompactCacheResponse)
	if !ok {
		return 0, errors.New("invalid response type")
	}

	return result.Removed, nil
}
