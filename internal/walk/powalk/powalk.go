// Package powalk translates the msgstr entries of a PO/gettext catalog
// while leaving reference comments, flags, and msgid content untouched.
// Hand-rolled against bufio rather than a gettext parsing library: PO's
// grammar is simple enough (blank-line-separated entries, line-prefix
// dispatch) that a library would buy nothing but a round-trip format
// that doesn't promise byte-exact passthrough of entries this walker
// never needs to touch.
package powalk

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/valpere/polyglotter/internal/errs"
)

// Translator turns source text into translated text via the document's
// translation cache.
type Translator func(core string) (string, error)

// Options controls which parts of an entry get translated.
type Options struct {
	// TranslateComments, when true, also translates free-form "#  " comment
	// lines (translator comments), never reference ("#:"), flag ("#,"), or
	// previous-msgid ("#|") comments.
	TranslateComments bool
}

type entry struct {
	lines []string
}

// Walk translates msgstr (and msgstr[n]) values across every entry in a PO
// document, preserving blank lines, comments, and msgid content exactly.
func Walk(data []byte, opts Options, tr Translator) ([]byte, error) {
	entries, trailing, err := splitEntries(data)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for _, e := range entries {
		translated, err := translateEntry(e, opts, tr)
		if err != nil {
			return nil, err
		}
		out.WriteString(translated)
	}
	out.WriteString(trailing)
	return out.Bytes(), nil
}

// splitEntries groups the document into blank-line-separated entries,
// keeping the blank-line separators attached to the entry that precedes
// them, and returns any trailing content after the last entry.
func splitEntries(data []byte) ([]entry, string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var entries []entry
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			entries = append(entries, entry{lines: cur})
			cur = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			cur = append(cur, line)
			flush()
			continue
		}
		cur = append(cur, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, "", errs.WithFormat(errs.Parse, "po", err)
	}
	flush()
	return entries, "", nil
}

// translateEntry rewrites one entry's msgstr / msgstr[n] lines (including
// their quoted-string continuation lines) in place.
func translateEntry(e entry, opts Options, tr Translator) (string, error) {
	if isHeaderEntry(e) {
		return strings.Join(e.lines, "\n") + "\n", nil
	}

	var out strings.Builder
	i := 0
	for i < len(e.lines) {
		line := e.lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case opts.TranslateComments && strings.HasPrefix(trimmed, "#") && isFreeformComment(trimmed):
			body := strings.TrimPrefix(trimmed, "#")
			body = strings.TrimPrefix(body, " ")
			if body == "" {
				out.WriteString(line)
				out.WriteString("\n")
				i++
				continue
			}
			translated, err := tr(body)
			if err != nil {
				return "", err
			}
			out.WriteString("# ")
			out.WriteString(translated)
			out.WriteString("\n")
			i++

		case isMsgstrStart(trimmed):
			block, consumed := collectQuotedBlock(e.lines, i)
			header := msgstrHeader(trimmed)
			translated, err := translateQuotedBlock(block, tr)
			if err != nil {
				return "", err
			}
			out.WriteString(header)
			out.WriteString(translated)
			i += consumed

		default:
			out.WriteString(line)
			out.WriteString("\n")
			i++
		}
	}
	return out.String(), nil
}

// isHeaderEntry reports whether e is the catalog metadata entry (msgid ""),
// which carries Content-Type/Plural-Forms headers in its msgstr rather than
// translatable text and must round-trip byte-for-byte.
func isHeaderEntry(e entry) bool {
	for _, line := range e.lines {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		return t == `msgid ""`
	}
	return false
}

func isFreeformComment(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	if len(trimmed) == 1 {
		return true
	}
	switch trimmed[1] {
	case ':', ',', '|', '.', '~':
		return false
	default:
		return true
	}
}

func isMsgstrStart(trimmed string) bool {
	return strings.HasPrefix(trimmed, `msgstr "`) ||
		strings.HasPrefix(trimmed, `msgstr[`) ||
		trimmed == `msgstr ""`
}

func msgstrHeader(trimmed string) string {
	if idx := strings.Index(trimmed, `"`); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}

// collectQuotedBlock gathers the quoted-string lines starting at index i
// (the msgstr line itself, plus any bare-quoted continuation lines that
// follow), returning the concatenated unescaped content and lines consumed.
func collectQuotedBlock(lines []string, i int) (string, int) {
	var parts []string
	first := strings.TrimSpace(lines[i])
	parts = append(parts, extractQuoted(first))

	j := i + 1
	for j < len(lines) {
		t := strings.TrimSpace(lines[j])
		if strings.HasPrefix(t, `"`) && strings.HasSuffix(t, `"`) {
			parts = append(parts, extractQuoted(t))
			j++
			continue
		}
		break
	}
	return strings.Join(parts, ""), j - i
}

func extractQuoted(line string) string {
	start := strings.Index(line, `"`)
	end := strings.LastIndex(line, `"`)
	if start < 0 || end <= start {
		return ""
	}
	unquoted, err := strconv.Unquote(line[start : end+1])
	if err != nil {
		return line[start+1 : end]
	}
	return unquoted
}

// translateQuotedBlock translates the joined msgstr content and re-wraps
// it as a single quoted line (msgid/msgstr multi-line wrapping is cosmetic
// and not worth byte-exact preservation once the content changes length).
func translateQuotedBlock(content string, tr Translator) (string, error) {
	if content == "" {
		return "\"\"\n", nil
	}
	translated, err := tr(content)
	if err != nil {
		return "", err
	}
	return strconv.Quote(translated) + "\n", nil
}
