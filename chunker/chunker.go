// Package chunker splits extracted document text into overlapping
// retrieval units.
package chunker

import (
	"errors"
	"iter"
	"strings"
	"unicode"
)

var (
	ErrInvalidTargetSize = errors.New("target size must be positive")
	ErrInvalidOverlap    = errors.New("overlap must be non-negative and smaller than target size")
)

// Chunker cuts text at semantic boundaries, preferring sentence and line
// breaks, falling back to whitespace, and only overrunning the target size
// when a single unbreakable run leaves no boundary to cut at. Every chunk is
// a substring of the input plus the trailing overlap of its predecessor, so
// no content is ever truncated.
type Chunker struct {
	targetSize int
	overlap    int
}

func New(targetSize, overlap int) (*Chunker, error) {
	if targetSize <= 0 {
		return nil, ErrInvalidTargetSize
	}

	if overlap < 0 || overlap >= targetSize {
		return nil, ErrInvalidOverlap
	}

	return &Chunker{
		targetSize: targetSize,
		overlap:    overlap,
	}, nil
}

// Chunk returns a lazy, restartable sequence of chunks. Empty or blank
// input yields no chunks.
func (c *Chunker) Chunk(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		runes := []rune(text)

		start := 0
		for start < len(runes) {
			end := c.cut(runes, start)

			from := start - c.overlap
			if from < 0 {
				from = 0
			}

			if !yield(string(runes[from:end])) {
				return
			}

			start = end
		}
	}
}

// cut picks the end of the chunk beginning at start.
func (c *Chunker) cut(runes []rune, start int) int {
	limit := start + c.targetSize
	if limit >= len(runes) {
		return len(runes)
	}

	if end := lastSemanticBoundary(runes, start, limit); end > start {
		return end
	}

	if end := lastWhitespaceBoundary(runes, start, limit); end > start {
		return end
	}

	// Unbreakable run: overrun to the next whitespace rather than cut
	// inside it.
	for i := limit; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}

	return len(runes)
}

// lastSemanticBoundary returns the latest position in (start, limit] that
// follows a line break or a sentence terminator, or start when there is none.
func lastSemanticBoundary(runes []rune, start, limit int) int {
	for i := limit; i > start; i-- {
		prev := runes[i-1]

		if prev == '\n' {
			return i
		}

		if isSentenceEnd(prev) && (i == len(runes) || unicode.IsSpace(runes[i])) {
			return i
		}
	}

	return start
}

func lastWhitespaceBoundary(runes []rune, start, limit int) int {
	for i := limit; i > start; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	return start
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
