// Package yamlwalk translates a YAML document line by line, preserving
// exact layout and comments rather than re-serializing from a parsed
// tree. Grounded on cue-lang's yaml decoder idioms (scalar-type
// classification) and the teacher's internal/markdown block-scalar
// handoff; gopkg.in/yaml.v3 is used only to classify a plain scalar as
// bool/null/numeric (the one place a full parser's judgment is safe to
// borrow without losing the source layout), everything else is hand-walked
// since no YAML library can reserialize with byte-exact comment/line
// preservation.
package yamlwalk

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valpere/polyglotter/internal/walk/mdwalk"
)

// Translator turns source text into translated text via the document's
// translation cache.
type Translator func(core string) (string, error)

var (
	keyValueLine  = regexp.MustCompile(`^(\s*(?:-\s+)?[^:#'"\n]+:\s*)(.*)$`)
	blockScalarRe = regexp.MustCompile(`^([|>][+\-]?\d*)\s*(#.*)?$`)
	reservedStart = regexp.MustCompile(`^[\-?:,\[\]{}#&*!|>'"%@` + "`" + `]`)
)

// Walk translates a YAML document line by line.
func Walk(src []byte, tr Translator) ([]byte, error) {
	lines := splitKeepEOL(string(src))
	var out strings.Builder

	i := 0
	for i < len(lines) {
		line := lines[i]
		content, eol := stripEOL(line)

		if trimmed := strings.TrimSpace(content); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			out.WriteString(content)
			out.WriteString(eol)
			i++
			continue
		}

		if m := keyValueLine.FindStringSubmatch(content); m != nil {
			prefix, value := m[1], strings.TrimRight(m[2], " \t")
			valueNoComment, comment := splitTrailingComment(value)
			valueTrimmed := strings.TrimSpace(valueNoComment)

			if bm := blockScalarRe.FindStringSubmatch(valueTrimmed); bm != nil {
				indent := leadingWhitespace(content) + "  "
				bodyLines, consumed := collectBlockScalarBody(lines, i+1, indent)
				translatedBody, err := translateBlockScalarBody(bodyLines, tr)
				if err != nil {
					return nil, err
				}
				out.WriteString(prefix)
				out.WriteString(valueTrimmed)
				out.WriteString(eol)
				out.WriteString(translatedBody)
				i += 1 + consumed
				continue
			}

			translatedValue, err := translateScalar(valueTrimmed, tr)
			if err != nil {
				return nil, err
			}
			out.WriteString(prefix)
			out.WriteString(translatedValue)
			if comment != "" {
				out.WriteString(" ")
				out.WriteString(comment)
			}
			out.WriteString(eol)
			i++
			continue
		}

		out.WriteString(content)
		out.WriteString(eol)
		i++
	}

	return []byte(out.String()), nil
}

// translateScalar handles quoted and plain scalars per the spec: quoted
// scalars translate their unescaped content and re-escape; plain scalars
// skip boolean/null/numeric values and re-quote the result with double
// quotes when the translation would otherwise need YAML quoting.
func translateScalar(value string, tr Translator) (string, error) {
	if value == "" {
		return value, nil
	}

	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		var unescaped string
		if err := yaml.Unmarshal([]byte(value), &unescaped); err != nil {
			return value, nil
		}
		translated, err := tr(unescaped)
		if err != nil {
			return "", err
		}
		return quoteDouble(translated), nil
	}
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		unescaped := strings.ReplaceAll(value[1:len(value)-1], "''", "'")
		translated, err := tr(unescaped)
		if err != nil {
			return "", err
		}
		return quoteDouble(translated), nil
	}

	if isBoolNullOrNumeric(value) {
		return value, nil
	}

	translated, err := tr(value)
	if err != nil {
		return "", err
	}
	if needsQuoting(translated) {
		return quoteDouble(translated), nil
	}
	return translated, nil
}

func isBoolNullOrNumeric(value string) bool {
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return false
	}
	switch v.(type) {
	case bool, nil, int, float64:
		return true
	default:
		return false
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, ":") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		return true
	}
	return reservedStart.MatchString(s)
}

func quoteDouble(s string) string {
	return fmt.Sprintf("%q", s)
}

func splitTrailingComment(value string) (string, string) {
	inSingle, inDouble := false, false
	for i, r := range value {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble && (i == 0 || value[i-1] == ' ' || value[i-1] == '\t') {
				return strings.TrimRight(value[:i], " \t"), value[i:]
			}
		}
	}
	return value, ""
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

// collectBlockScalarBody gathers every following line more-indented than
// the key, returning the raw lines and how many were consumed.
func collectBlockScalarBody(lines []string, start int, minIndent string) ([]string, int) {
	var body []string
	i := start
	for i < len(lines) {
		content, _ := stripEOL(lines[i])
		if strings.TrimSpace(content) == "" {
			body = append(body, lines[i])
			i++
			continue
		}
		if !strings.HasPrefix(content, minIndent) && !strings.HasPrefix(content, " ") {
			break
		}
		if len(leadingWhitespace(content)) < len(minIndent) {
			break
		}
		body = append(body, lines[i])
		i++
	}
	return body, i - start
}

// translateBlockScalarBody routes a block scalar's body through the
// Markdown walker, per the spec's YAML-to-Markdown handoff for `|`/`>`
// scalars.
func translateBlockScalarBody(lines []string, tr Translator) (string, error) {
	joined := strings.Join(lines, "")
	translated, err := mdwalk.Walk([]byte(joined), mdwalk.Translator(tr))
	if err != nil {
		return joined, nil // soft-fail: keep original body on markdown parse failure
	}
	return string(translated), nil
}

func splitKeepEOL(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func stripEOL(line string) (string, string) {
	if strings.HasSuffix(line, "\r\n") {
		return line[:len(line)-2], "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}
