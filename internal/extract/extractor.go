package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	appErr "github.com/ragvault/ragvault/internal/pkg/errors"
)

const pdfPlaceholder = "PDF parsing is not wired in this deployment. Provide text or markdown files for full extraction."

// Extractor turns an uploaded blob into plain text. Unsupported binary
// formats return a placeholder instead of failing the ingestion.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(fileName string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf":
		return pdfPlaceholder, nil
	case ".md", ".markdown":
		plain, err := stripMarkdown(content)
		if err != nil {
			return "", fmt.Errorf("%w: %v", appErr.ErrExtraction, err)
		}
		return plain, nil
	default:
		if !isTextual(content) {
			return "", fmt.Errorf("%w: binary content in %s", appErr.ErrExtraction, fileName)
		}
		return string(content), nil
	}
}

// stripMarkdown flattens a markdown document into plain text by walking the
// goldmark AST and collecting text segments in document order.
func stripMarkdown(source []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var builder strings.Builder
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Text:
			builder.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				builder.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				builder.Write(line.Value(source))
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if builder.Len() > 0 {
				builder.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(builder.String()), nil
}

func isTextual(content []byte) bool {
	for _, b := range content {
		if b == 0 {
			return false
		}
	}
	return true
}
