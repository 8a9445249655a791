// Package ignore applies gitignore-style pattern matching to decide which
// files a directory translation run should skip. Wraps
// github.com/sabhiram/go-gitignore, which already implements the
// last-match-wins, negation, and anchoring semantics the spec calls for;
// hand-rolling that grammar again would just reproduce a library the
// Go ecosystem already gets right.
package ignore

import (
	"os"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/valpere/polyglotter/internal/errs"
)

// Matcher decides whether a relative path should be excluded from
// translation.
type Matcher struct {
	gi *gitignore.GitIgnore
}

// New compiles lines (in order) into a Matcher. Later lines take
// precedence over earlier ones per gitignore's last-match-wins rule.
func New(lines []string) (*Matcher, error) {
	gi := gitignore.CompileIgnoreLines(lines...)
	return &Matcher{gi: gi}, nil
}

// Load reads a gitignore-formatted file and compiles it into a Matcher. A
// missing file yields an empty (never-matches) Matcher, matching the
// common case of a directory with no ignore file.
func Load(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil)
		}
		return nil, errs.WithFormat(errs.Decode, "ignore-file", err)
	}
	gi := gitignore.CompileIgnoreLines(splitLines(string(data))...)
	return &Matcher{gi: gi}, nil
}

// Match reports whether relPath (slash-separated, relative to the
// translation root) should be skipped.
func (m *Matcher) Match(relPath string) bool {
	if m == nil || m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(relPath)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			line := s[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
