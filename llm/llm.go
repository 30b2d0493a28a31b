// Package llm provides answer-generation backends.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnsupportedProvider = errors.New("unsupported llm provider")

type Config struct {
	Provider string `json:"provider" yaml:"provider"` // "openai", "ollama" or "huggingface"
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"baseURL" yaml:"baseURL"`
}

// Generator produces an answer for an assembled prompt. The mode is the
// response style the prompt was built for.
type Generator interface {
	Generate(ctx context.Context, prompt string, mode string) (string, error)
}

func New(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(cfg.Model)

	case "ollama":
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model), nil

	case "huggingface":
		return NewHuggingFaceGenerator(cfg.BaseURL, cfg.Model)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}
