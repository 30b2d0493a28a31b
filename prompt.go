package pedaragy

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const noContextNotice = "No supporting material was found in the corpus. " +
	"Answer from general knowledge and say that the corpus had nothing relevant."

type promptTemplate func(context, question string) string

// promptTemplates is the closed mode table. Every valid Mode has an entry;
// adding a mode without one is caught by TestPromptTemplatesCoverAllModes.
var promptTemplates = map[Mode]promptTemplate{
	ModeExplain: func(context, question string) string {
		return fmt.Sprintf(`You are an expert tutor. Explain the following to a student clearly and simply.

Context:
%s

Question:
%s

Explanation:`, context, question)
	},

	ModeQuiz: func(context, question string) string {
		return fmt.Sprintf(`Given the following material:

%s

The student asked: %s

Create a quiz with 3 multiple-choice questions about this material, each with 4 options and the correct answer indicated.`, context, question)
	},

	ModeHint: func(context, question string) string {
		return fmt.Sprintf(`Provide a hint for the question below based on the provided context. Do not give the full answer.

Context:
%s

Question:
%s

Hint:`, context, question)
	},
}

// BuildPrompt assembles the generation prompt for a mode. An empty context
// degrades to a "no supporting material" notice rather than failing.
func BuildPrompt(mode Mode, context, question string) (string, error) {
	tmpl, ok := promptTemplates[mode]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	if strings.TrimSpace(context) == "" {
		context = noContextNotice
	}

	return tmpl(context, question), nil
}

// BuildContext concatenates retrieved chunks in descending-score order, each
// attributed to its source document, stopping once the token budget is
// spent. The best chunk is always included, even when it alone exceeds the
// budget.
func BuildContext(chunks []DocumentChunk, budget int) string {
	var (
		sb   strings.Builder
		used int
	)

	for i, c := range chunks {
		block := fmt.Sprintf("[Source: %s]\n%s", c.SourceDocID, c.Text)

		n := countTokens(block)
		if i > 0 && used+n > budget {
			break
		}

		if i > 0 {
			sb.WriteString("\n\n")
		}

		sb.WriteString(block)
		used += n
	}

	return sb.String()
}

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// countTokens measures text against the context budget. When the BPE data
// is unavailable (offline), a 4-characters-per-token estimate is used
// instead.
func countTokens(text string) int {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoder = enc
		}
	})

	if encoder == nil {
		return (len(text) + 3) / 4
	}

	return len(encoder.Encode(text, nil, nil))
}
