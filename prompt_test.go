package pedaragy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptTemplatesCoverAllModes(t *testing.T) {
	assert := assert.New(t)

	for _, mode := range []Mode{ModeExplain, ModeQuiz, ModeHint} {
		prompt, err := BuildPrompt(mode, "some context", "some question")
		if err != nil {
			assert.Fail(err.Error())
			return
		}

		assert.Contains(prompt, "some context")
		assert.Contains(prompt, "some question")
	}
}

func TestBuildPromptRejectsUnknownMode(t *testing.T) {
	assert := assert.New(t)

	_, err := BuildPrompt(Mode("lecture"), "context", "question")
	assert.ErrorIs(err, ErrInvalidMode)
}

func TestBuildPromptWithoutContext(t *testing.T) {
	assert := assert.New(t)

	prompt, err := BuildPrompt(ModeExplain, "   ", "what is osmosis?")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Contains(prompt, noContextNotice)
	assert.Contains(prompt, "what is osmosis?")
}

func TestBuildContextAttributesSources(t *testing.T) {
	assert := assert.New(t)

	chunks := []DocumentChunk{
		{SourceDocID: "cells.txt", Text: "The cell is the basic unit of life."},
		{SourceDocID: "energy.txt", Text: "ATP stores chemical energy."},
	}

	out := BuildContext(chunks, 1024)

	assert.Contains(out, "[Source: cells.txt]")
	assert.Contains(out, "[Source: energy.txt]")

	// Chunks arrive ranked; the context preserves that order.
	assert.Less(strings.Index(out, "cells.txt"), strings.Index(out, "energy.txt"))
}

func TestBuildContextRespectsBudget(t *testing.T) {
	assert := assert.New(t)

	chunks := []DocumentChunk{
		{SourceDocID: "a.txt", Text: strings.Repeat("alpha ", 50)},
		{SourceDocID: "b.txt", Text: strings.Repeat("beta ", 50)},
	}

	out := BuildContext(chunks, 10)

	// The best chunk is always included, even over budget; the second one
	// no longer fits.
	assert.Contains(out, "a.txt")
	assert.NotContains(out, "b.txt")
}

func TestBuildContextEmpty(t *testing.T) {
	assert := assert.New(t)

	assert.Empty(BuildContext(nil, 1024))
}
