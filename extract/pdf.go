package extract

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// PDFExtractor pulls text out of PDF content streams. Layout is not
// reconstructed; text-showing operators are decoded in stream order, which
// is good enough for retrieval chunks.
type PDFExtractor struct{}

// pdfString matches a literal PDF string operand ahead of a Tj/TJ/' operator.
var pdfString = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)

func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var sb strings.Builder

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", pageNr, err)
		}

		if r == nil {
			continue
		}

		content, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}

		page := decodeTextOperators(string(content))
		if page == "" {
			continue
		}

		sb.WriteString(page)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String()), nil
}

func (e *PDFExtractor) Extensions() []string {
	return []string{".pdf"}
}

func decodeTextOperators(content string) string {
	var parts []string

	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "Tj") && !strings.Contains(line, "TJ") {
			continue
		}

		for _, m := range pdfString.FindAllStringSubmatch(line, -1) {
			s := unescapePDFString(m[1])
			if strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
	}

	return strings.Join(parts, " ")
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
		`\n`, "\n",
		`\r`, "\r",
		`\t`, "\t",
	)

	return replacer.Replace(s)
}
