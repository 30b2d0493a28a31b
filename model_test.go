package pedaragy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/pedaragy/pedaragy/vector"
)

func vectorMatchFromRecord(rec vector.Record) vector.Match {
	return vector.Match{
		ID:      rec.ID,
		Score:   1,
		Vector:  rec.Vector,
		Payload: rec.Payload,
	}
}

func TestConfigYAMLUnmarshal(t *testing.T) {
	assert := assert.New(t)

	input := `dimension: 384
topK: 4
cacheThreshold: 0.95
chunkSize: 800
chunkOverlap: 120
timeouts:
  embedding: 30s
  generation: 2m
vector:
  backend: chromem
  persistent: true
embedding:
  provider: ollama
  model: all-minilm
  baseURL: http://localhost:11434
llm:
  provider: ollama
  model: llama3.2`

	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(384, cfg.Dimension)
	assert.Equal(float32(0.95), cfg.CacheThreshold)
	assert.Equal(30*time.Second, cfg.Timeouts.Embedding.Duration())
	assert.Equal(2*time.Minute, cfg.Timeouts.Generation.Duration())
	assert.Equal("chromem", cfg.Vector.Backend)
	assert.True(cfg.Vector.Persistent)
	assert.Equal("ollama", cfg.Embedding.Provider)
	assert.Equal("llama3.2", cfg.LLM.Model)
}

func TestConfigApplyDefaults(t *testing.T) {
	assert := assert.New(t)

	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(384, cfg.Dimension)
	assert.Equal(4, cfg.TopK)
	assert.Equal(float32(0.95), cfg.CacheThreshold)
	assert.Equal(float32(0.99), cfg.CompactThreshold)
	assert.Equal(800, cfg.ChunkSize)
	if assert.NotNil(cfg.ChunkOverlap) {
		assert.Equal(120, *cfg.ChunkOverlap)
	}
	assert.Equal(2048, cfg.ContextBudget)
	assert.Equal(30*time.Second, cfg.Timeouts.Embedding.Duration())
	assert.Equal(15*time.Second, cfg.Timeouts.Retrieval.Duration())
	assert.Equal(2*time.Minute, cfg.Timeouts.Generation.Duration())
}

func TestConfigApplyDefaultsKeepsZeroOverlap(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{ChunkOverlap: intPtr(0)}
	cfg.ApplyDefaults()

	if assert.NotNil(cfg.ChunkOverlap) {
		assert.Equal(0, *cfg.ChunkOverlap, "an explicit zero overlap is a valid setting")
	}
}

func TestConfigApplyDefaultsClampsOverlapToChunkSize(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{ChunkSize: 40}
	cfg.ApplyDefaults()

	if assert.NotNil(cfg.ChunkOverlap) {
		assert.Less(*cfg.ChunkOverlap, cfg.ChunkSize)
	}
}

func TestConfigApplyDefaultsKeepsExplicitValues(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{
		Dimension:      768,
		CacheThreshold: 0.9,
	}
	cfg.ApplyDefaults()

	assert.Equal(768, cfg.Dimension)
	assert.Equal(float32(0.9), cfg.CacheThreshold)
	assert.Equal(4, cfg.TopK)
}

func TestParseMode(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []string{"explain", "quiz", "hint"} {
		mode, err := ParseMode(s)
		assert.NoError(err)
		assert.Equal(s, mode.String())
	}

	_, err := ParseMode("lecture")
	assert.ErrorIs(err, ErrInvalidMode)

	_, err = ParseMode("")
	assert.ErrorIs(err, ErrInvalidMode)

	_, err = ParseMode("Explain")
	assert.ErrorIs(err, ErrInvalidMode)
}

func TestDurationJSONRoundTrip(t *testing.T) {
	assert := assert.New(t)

	d := Duration(90 * time.Second)

	data, err := json.Marshal(d)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(`"1m30s"`, string(data))

	var out Duration
	if err := json.Unmarshal(data, &out); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(d, out)
}

func TestCacheEntryRecordRoundTrip(t *testing.T) {
	assert := assert.New(t)

	entry := CacheEntry{
		ID:                "cache_abc",
		QuestionText:      "what is osmosis?",
		QuestionEmbedding: []float32{1, 0, 0, 0},
		AnswerText:        "water moves across membranes",
		Mode:              ModeExplain,
		CreatedAt:         time.Now().UTC().Truncate(time.Millisecond),
	}

	rec := entry.Record()
	assert.Equal("explain", rec.Payload["mode"])

	out := CacheEntryFromMatch(vectorMatchFromRecord(rec))
	assert.Equal(entry.QuestionText, out.QuestionText)
	assert.Equal(entry.AnswerText, out.AnswerText)
	assert.Equal(entry.Mode, out.Mode)
	assert.True(entry.CreatedAt.Equal(out.CreatedAt))
}

func TestAnswerJSONOmitsCacheFieldsOnMiss(t *testing.T) {
	assert := assert.New(t)

	data, err := json.Marshal(Answer{
		Answer: "generated",
		Mode:   ModeExplain,
		Cached: false,
	})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.NotContains(string(data), "similarity_score")
	assert.NotContains(string(data), "original_query")
}
