package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(c *Chunker, text string) []string {
	var chunks []string
	for chunk := range c.Chunk(text) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestNewValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := New(0, 0)
	assert.ErrorIs(err, ErrInvalidTargetSize)

	_, err = New(100, -1)
	assert.ErrorIs(err, ErrInvalidOverlap)

	_, err = New(100, 100)
	assert.ErrorIs(err, ErrInvalidOverlap)

	_, err = New(100, 20)
	assert.NoError(err)
}

func TestBlankInputYieldsNothing(t *testing.T) {
	assert := assert.New(t)

	c, err := New(100, 20)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Empty(collect(c, ""))
	assert.Empty(collect(c, "   \n\t  "))
}

func TestRoundTripWithoutOverlap(t *testing.T) {
	assert := assert.New(t)

	c, err := New(40, 0)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	text := "The mitochondria is the powerhouse of the cell. " +
		"It produces ATP through oxidative phosphorylation.\n" +
		"Plants additionally rely on chloroplasts for photosynthesis."

	chunks := collect(c, text)
	assert.Greater(len(chunks), 1)
	assert.Equal(text, strings.Join(chunks, ""))
}

func TestRoundTripWithOverlap(t *testing.T) {
	assert := assert.New(t)

	overlap := 10

	c, err := New(50, overlap)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	text := "Osmosis is the movement of water across a membrane. " +
		"Diffusion moves solutes from high to low concentration. " +
		"Active transport instead spends energy to move solutes uphill."

	chunks := collect(c, text)
	assert.Greater(len(chunks), 1)

	// Each chunk repeats the tail of the content before it; stripping that
	// prefix reassembles the input exactly.
	reconstructed := []rune(chunks[0])
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)

		n := overlap
		if len(reconstructed) < n {
			n = len(reconstructed)
		}

		assert.Equal(string(reconstructed[len(reconstructed)-n:]), string(runes[:n]))

		reconstructed = append(reconstructed, runes[n:]...)
	}

	assert.Equal(text, string(reconstructed))
}

func TestChunkSizeBounds(t *testing.T) {
	assert := assert.New(t)

	targetSize, overlap := 60, 12

	c, err := New(targetSize, overlap)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	text := strings.Repeat("Short words keep every window breakable here. ", 20)

	for _, chunk := range collect(c, text) {
		assert.LessOrEqual(len([]rune(chunk)), targetSize+overlap)
	}
}

func TestPrefersSentenceBoundary(t *testing.T) {
	assert := assert.New(t)

	c, err := New(40, 0)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	text := "First sentence ends here. Second sentence keeps going for a while longer."

	chunks := collect(c, text)
	assert.Greater(len(chunks), 1)
	assert.Equal("First sentence ends here.", strings.TrimSpace(chunks[0]))
}

func TestUnbreakableRunOverruns(t *testing.T) {
	assert := assert.New(t)

	c, err := New(10, 0)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	run := strings.Repeat("x", 50)

	chunks := collect(c, run)
	assert.Len(chunks, 1)
	assert.Equal(run, chunks[0])
}

func TestChunkSequenceIsRestartable(t *testing.T) {
	assert := assert.New(t)

	c, err := New(30, 5)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	text := "Enzymes lower activation energy. Substrates bind at the active site."

	seq := c.Chunk(text)
	assert.Equal(collectSeq(seq), collectSeq(seq))
}

func collectSeq(seq func(func(string) bool)) []string {
	var chunks []string
	seq(func(s string) bool {
		chunks = append(chunks, s)
		return true
	})
	return chunks
}
