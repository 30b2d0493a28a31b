// Package embedding provides text-to-vector providers with a fixed,
// system-wide dimension.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyText           = errors.New("cannot embed empty text")
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
)

type Config struct {
	Provider string `json:"provider" yaml:"provider"` // "openai" or "ollama"
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"baseURL" yaml:"baseURL"`
}

// Provider maps text to a vector of the fixed dimension D.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// New builds the provider selected by cfg.Provider, producing vectors of
// the given dimension.
func New(cfg Config, dimension int) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.Model, dimension)

	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, dimension), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}
