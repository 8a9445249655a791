// Package errs defines the error-kind taxonomy shared by every component,
// so callers (CLI exit codes, the HTTP server, the MCP server) can map a
// failure to a stable surface name without string-matching messages.
package errs

import "fmt"

// Kind names why an operation failed, independent of the wrapped cause.
type Kind string

const (
	InvalidInput      Kind = "InvalidInput"
	UnsupportedMime   Kind = "UnsupportedMime"
	MimeLowConfidence Kind = "MimeLowConfidence"
	Decode            Kind = "Decode"
	Parse             Kind = "Parse"
	ToolArgMismatch   Kind = "ToolArgMismatch"
	ProviderHttp      Kind = "ProviderHttp"
	ExternalCommand   Kind = "ExternalCommand"
	EmptyOutput       Kind = "EmptyOutput"
)

// Error wraps a cause with a Kind and an optional format tag (e.g. the
// originating parser's name for Parse errors).
type Error struct {
	Kind   Kind
	Format string // optional, e.g. "xml", "yaml", "po"
	Cause  error
}

func (e *Error) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Format, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no format tag.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf wraps a formatted cause under kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// WithFormat builds an *Error tagged with the originating format name,
// used for Parse errors across the structured-document walkers.
func WithFormat(kind Kind, format string, cause error) *Error {
	return &Error{Kind: kind, Format: format, Cause: cause}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
