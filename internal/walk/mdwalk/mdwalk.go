// Package mdwalk parses Markdown into a goldmark AST, translates text
// runs outside code blocks, and reconstructs the source by patching the
// translated byte ranges back into the original text — preserving every
// byte of formatting syntax the parser doesn't turn into a text node.
// Grounded on wudi-pdfkit's goldmark usage for document processing.
package mdwalk

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/valpere/polyglotter/internal/errs"
)

// Translator turns source text into translated text via the document's
// translation cache.
type Translator func(core string) (string, error)

type patch struct {
	start, stop int
	replacement []byte
}

// Walk parses src as Markdown and translates every text run whose
// ancestor code-block depth is zero, returning the reconstructed bytes.
func Walk(src []byte, tr Translator) ([]byte, error) {
	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var patches []patch
	var walkErr error
	depth := 0

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if walkErr != nil {
			return ast.WalkStop, nil
		}
		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindCodeSpan:
			if entering {
				depth++
			} else {
				depth--
			}
			return ast.WalkContinue, nil
		}

		if entering && depth == 0 {
			if t, ok := n.(*ast.Text); ok {
				seg := t.Segment
				raw := seg.Value(src)
				if len(bytes.TrimSpace(raw)) > 0 {
					translated, err := tr(string(raw))
					if err != nil {
						walkErr = err
						return ast.WalkStop, nil
					}
					patches = append(patches, patch{start: seg.Start, stop: seg.Stop, replacement: []byte(translated)})
				}
			}
		}
		return ast.WalkContinue, nil
	})

	if walkErr != nil {
		return nil, walkErr
	}
	if len(patches) == 0 {
		return append([]byte(nil), src...), nil
	}

	sort.Slice(patches, func(i, j int) bool { return patches[i].start < patches[j].start })

	var out bytes.Buffer
	cursor := 0
	for _, p := range patches {
		if p.start < cursor {
			continue // overlapping segment, defensively skip
		}
		out.Write(src[cursor:p.start])
		out.Write(p.replacement)
		cursor = p.stop
	}
	out.Write(src[cursor:])
	return out.Bytes(), nil
}

// ParseOnly parses src as Markdown and walks the resulting tree without
// translating anything.
func ParseOnly(src []byte) error {
	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return ast.WalkContinue, nil
	})
	if err != nil {
		return errs.WithFormat(errs.Parse, "markdown", err)
	}
	return nil
}
