package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDispatchesByProvider(t *testing.T) {
	assert := assert.New(t)

	g, err := New(Config{Provider: "ollama"})
	assert.NoError(err)
	assert.IsType(&OllamaGenerator{}, g)

	_, err = New(Config{Provider: "bard"})
	assert.ErrorIs(err, ErrUnsupportedProvider)
}

func TestHuggingFaceGeneratorRequiresToken(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("HUGGINGFACE_API_TOKEN", "")

	_, err := New(Config{Provider: "huggingface"})
	assert.Error(err)
}

func TestHuggingFaceGenerate(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("HUGGINGFACE_API_TOKEN", "test-token")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/google/gemma-7b-it", r.URL.Path)
		assert.Equal("Bearer test-token", r.Header.Get("Authorization"))

		var req hfGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		assert.Equal("the prompt", req.Inputs)
		assert.False(req.Parameters.ReturnFullText)

		json.NewEncoder(w).Encode([]hfGenerateResponse{
			{GeneratedText: "a generated answer"},
		})
	}))
	defer srv.Close()

	g, err := NewHuggingFaceGenerator(srv.URL, "")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	answer, err := g.Generate(context.Background(), "the prompt", "explain")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("a generated answer", answer)
}

func TestHuggingFaceGenerateErrorStatus(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("HUGGINGFACE_API_TOKEN", "test-token")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g, err := NewHuggingFaceGenerator(srv.URL, "")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	_, err = g.Generate(context.Background(), "the prompt", "explain")
	assert.Error(err)
}
