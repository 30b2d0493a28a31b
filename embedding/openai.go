package embedding

import (
	"context"
	"errors"
	"math"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider embeds text through the OpenAI embeddings API. The request
// pins the output dimension so any model produces vectors of the configured
// size.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	dim    int
}

func NewOpenAIProvider(model string, dimension int) (*OpenAIProvider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIProvider{
		client: openai.NewClient(key),
		model:  model,
		dim:    dimension,
	}, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if len(text) == 0 {
			return nil, ErrEmptyText
		}
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(p.model),
		Input:      texts,
		Dimensions: p.dim,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding count does not match input count")
	}

	vecs := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		v := append([]float32(nil), data.Embedding...)
		l2normalize(v)
		vecs[i] = v
	}

	return vecs, nil
}

func (p *OpenAIProvider) Dimension() int {
	return p.dim
}

// l2normalize scales a vector to unit length so dot products are cosine
// similarities.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}

	if sum == 0 {
		return
	}

	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
