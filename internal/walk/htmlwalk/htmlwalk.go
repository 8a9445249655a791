// Package htmlwalk parses an HTML document into a DOM, walks it skipping
// non-prose subtrees, translates text nodes plus an attribute allow-list,
// and re-serializes. Grounded on megalamo-pixivfe's goquery-based DOM
// walking idiom, built directly against golang.org/x/net/html since that is
// the parser goquery itself wraps and the translation core needs raw
// node-level control the higher-level selector API doesn't expose.
package htmlwalk

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/valpere/polyglotter/internal/errs"
)

// Translator turns source text into translated text via the document's
// translation cache.
type Translator func(core string) (string, error)

// Options controls optional comment translation; the attribute allow-list
// and skip-list are fixed per the spec.
type Options struct {
	TranslateComments bool
}

var skipSubtrees = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"code": true, "pre": true, "kbd": true, "samp": true,
}

var attrAllowList = map[string]bool{
	"title": true, "alt": true, "placeholder": true,
	"aria-label": true, "aria-description": true,
}

// Walk parses data as HTML, translates text nodes/comments/allow-listed
// attributes, and returns the re-serialized document.
func Walk(data []byte, opts Options, tr Translator) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errs.WithFormat(errs.Parse, "html", err)
	}

	var walkErr error
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode && skipSubtrees[strings.ToLower(n.Data)] {
			return
		}

		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				if t, err := tr(n.Data); err != nil {
					walkErr = err
				} else {
					n.Data = t
				}
			}
		case html.CommentNode:
			if opts.TranslateComments && strings.TrimSpace(n.Data) != "" {
				if t, err := tr(n.Data); err != nil {
					walkErr = err
				} else {
					n.Data = t
				}
			}
		case html.ElementNode:
			for i := range n.Attr {
				if attrAllowList[strings.ToLower(n.Attr[i].Key)] && strings.TrimSpace(n.Attr[i].Val) != "" {
					t, err := tr(n.Attr[i].Val)
					if err != nil {
						walkErr = err
						return
					}
					n.Attr[i].Val = t
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
			if walkErr != nil {
				return
			}
		}
	}
	visit(doc)
	if walkErr != nil {
		return nil, walkErr
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, errs.WithFormat(errs.Parse, "html", err)
	}
	return out.Bytes(), nil
}
