package pedaragy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pedaragy/pedaragy/embedding"
	"github.com/pedaragy/pedaragy/llm"
	"github.com/pedaragy/pedaragy/vector"
)

var (
	ErrInvalidMode   = errors.New("invalid mode")
	ErrEmptyQuestion = errors.New("question must not be empty")
	ErrExtraction    = errors.New("extraction failed")
	ErrEmbedding     = errors.New("embedding failed")
	ErrRetrieval     = errors.New("retrieval failed")
	ErrGeneration    = errors.New("generation failed")
	ErrCacheStore    = errors.New("cache store failed")
)

// Mode is the response style of an answer. It is part of a cache entry's
// identity: the same question asked in two modes never cross-hits.
type Mode string

const (
	ModeExplain Mode = "explain"
	ModeQuiz    Mode = "quiz"
	ModeHint    Mode = "hint"
)

func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}

	return mode, nil
}

func (m Mode) Valid() bool {
	switch m {
	case ModeExplain, ModeQuiz, ModeHint:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	str := d.Duration().String()
	return json.Marshal(str)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() ([]byte, error) {
	str := d.Duration().String()
	return yaml.Marshal(str)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

type TimeoutConfig struct {
	Embedding  Duration `json:"embedding" yaml:"embedding"`
	Retrieval  Duration `json:"retrieval" yaml:"retrieval"`
	Generation Duration `json:"generation" yaml:"generation"`
}

type WatchConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
}

type Config struct {
	Dimension        int     `json:"dimension" yaml:"dimension"`
	TopK             int     `json:"topK" yaml:"topK"`
	CacheThreshold   float32 `json:"cacheThreshold" yaml:"cacheThreshold"`
	CompactThreshold float32 `json:"compactThreshold" yaml:"compactThreshold"`
	ChunkSize        int     `json:"chunkSize" yaml:"chunkSize"`
	ChunkOverlap     *int    `json:"chunkOverlap" yaml:"chunkOverlap"` // nil means default; 0 is a valid overlap
	ContextBudget    int     `json:"contextBudget" yaml:"contextBudget"`
	DedupeInFlight   bool    `json:"dedupeInFlight" yaml:"dedupeInFlight"`

	Timeouts  TimeoutConfig    `json:"timeouts" yaml:"timeouts"`
	Vector    vector.Config    `json:"vector" yaml:"vector"`
	Embedding embedding.Config `json:"embedding" yaml:"embedding"`
	LLM       llm.Config       `json:"llm" yaml:"llm"`
	Watch     WatchConfig      `json:"watch" yaml:"watch"`
}

// ApplyDefaults fills zero-valued fields with the reference configuration.
func (cfg *Config) ApplyDefaults() {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 384
	}

	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}

	if cfg.CacheThreshold <= 0 {
		cfg.CacheThreshold = 0.95
	}

	if cfg.CompactThreshold <= 0 {
		cfg.CompactThreshold = 0.99
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 800
	}

	if cfg.ChunkOverlap == nil {
		overlap := 120
		if overlap >= cfg.ChunkSize {
			overlap = cfg.ChunkSize / 4
		}

		cfg.ChunkOverlap = &overlap
	}

	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = 2048
	}

	if cfg.Timeouts.Embedding <= 0 {
		cfg.Timeouts.Embedding = Duration(30 * time.Second)
	}

	if cfg.Timeouts.Retrieval <= 0 {
		cfg.Timeouts.Retrieval = Duration(15 * time.Second)
	}

	if cfg.Timeouts.Generation <= 0 {
		cfg.Timeouts.Generation = Duration(2 * time.Minute)
	}
}

// DocumentChunk is one retrievable unit of an ingested document. Chunks of
// the same document carry contiguous ordinals and are immutable once stored.
type DocumentChunk struct {
	ID          string    `json:"id"`
	SourceDocID string    `json:"source_doc_id"`
	Ordinal     int       `json:"ordinal"`
	Text        string    `json:"text"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

func (c DocumentChunk) Record() vector.Record {
	return vector.Record{
		ID:     c.ID,
		Vector: c.Embedding,
		Payload: map[string]string{
			"text":    c.Text,
			"source":  c.SourceDocID,
			"ordinal": strconv.Itoa(c.Ordinal),
		},
	}
}

func ChunkFromMatch(m vector.Match) DocumentChunk {
	ordinal, _ := strconv.Atoi(m.Payload["ordinal"])

	return DocumentChunk{
		ID:          m.ID,
		SourceDocID: m.Payload["source"],
		Ordinal:     ordinal,
		Text:        m.Payload["text"],
		Embedding:   m.Vector,
	}
}

// CacheEntry is a stored question/answer pair. Entries are never mutated and
// never individually deleted outside of compaction or a bulk clear.
type CacheEntry struct {
	ID                string    `json:"id"`
	QuestionText      string    `json:"question_text"`
	QuestionEmbedding []float32 `json:"question_embedding,omitempty"`
	AnswerText        string    `json:"answer_text"`
	Mode              Mode      `json:"mode"`
	CreatedAt         time.Time `json:"created_at"`
}

func (e CacheEntry) Record() vector.Record {
	return vector.Record{
		ID:     e.ID,
		Vector: e.QuestionEmbedding,
		Payload: map[string]string{
			"question":   e.QuestionText,
			"answer":     e.AnswerText,
			"mode":       e.Mode.String(),
			"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func CacheEntryFromMatch(m vector.Match) CacheEntry {
	createdAt, _ := time.Parse(time.RFC3339Nano, m.Payload["created_at"])

	return CacheEntry{
		ID:                m.ID,
		QuestionText:      m.Payload["question"],
		QuestionEmbedding: m.Vector,
		AnswerText:        m.Payload["answer"],
		Mode:              Mode(m.Payload["mode"]),
		CreatedAt:         createdAt,
	}
}

// SimilarityMatch is the transient result of a cache lookup.
type SimilarityMatch struct {
	Entry CacheEntry `json:"entry"`
	Score float32    `json:"score"`
}

type CacheStats struct {
	EntryCount int     `json:"entry_count"`
	Dimension  int     `json:"dimension"`
	Metric     string  `json:"metric"`
	Threshold  float32 `json:"threshold"`
}

// Answer is the response to a question. SimilarityScore and OriginalQuery
// are only set when the answer was served from the cache.
type Answer struct {
	Answer          string  `json:"answer"`
	Mode            Mode    `json:"mode"`
	Cached          bool    `json:"cached"`
	SimilarityScore float32 `json:"similarity_score,omitempty"`
	OriginalQuery   string  `json:"original_query,omitempty"`
}

type IngestFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// IngestReport summarizes a batch ingestion. A failed file never aborts the
// batch; it is recorded here instead.
type IngestReport struct {
	ProcessedCount int             `json:"processed_count"`
	TotalChunks    int             `json:"total_chunks"`
	Failed         []IngestFailure `json:"failed,omitempty"`
}
