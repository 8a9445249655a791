// Package segment implements the text-segment translator: a pure function
// layered on the translation cache that leaves whitespace-only input
// untouched and otherwise substitutes the translated core back in.
package segment

import (
	"strings"

	"github.com/valpere/polyglotter/internal/cache"
)

// Translate returns text unchanged if it is entirely whitespace; otherwise
// it calls through c (preserving leading/trailing whitespace) and returns
// the substituted result.
func Translate(c *cache.Cache, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	return c.TranslatePreserveWhitespace(text)
}
