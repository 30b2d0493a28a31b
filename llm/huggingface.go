package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
)

// HuggingFaceGenerator answers through the Hugging Face Inference API.
type HuggingFaceGenerator struct {
	baseURL string
	model   string
	token   string
	client  *http.Client
}

func NewHuggingFaceGenerator(baseURL, model string) (*HuggingFaceGenerator, error) {
	token := os.Getenv("HUGGINGFACE_API_TOKEN")
	if token == "" {
		return nil, errors.New("HUGGINGFACE_API_TOKEN environment variable not set")
	}

	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/models"
	}

	if model == "" {
		model = "google/gemma-7b-it"
	}

	return &HuggingFaceGenerator{
		baseURL: baseURL,
		model:   model,
		token:   token,
		client:  &http.Client{},
	}, nil
}

type hfGenerateRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float32 `json:"temperature"`
	TopP           float32 `json:"top_p"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGenerateResponse struct {
	GeneratedText string `json:"generated_text"`
}

func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string, mode string) (string, error) {
	body, err := json.Marshal(hfGenerateRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   512,
			Temperature:    0.7,
			TopP:           0.9,
			DoSample:       true,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	url := g.baseURL + "/" + g.model

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling hugging face: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hugging face returned status %d", resp.StatusCode)
	}

	var results []hfGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(results) == 0 {
		return "", errors.New("no generation returned")
	}

	return results[0].GeneratedText, nil
}
