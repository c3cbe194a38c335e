package llhls

import "fmt"

// ParseErrorKind classifies why a playlist failed to parse.
type ParseErrorKind int

const (
	// NotM3U8 means the input does not start with #EXTM3U.
	NotM3U8 ParseErrorKind = iota
	// MalformedTag means an interpreted tag carried an unusable value.
	MalformedTag
	// UnexpectedEOF means the input ended inside a segment, e.g. an
	// EXTINF with no URI line after it.
	UnexpectedEOF
	// AttributeSyntax means a KEY=VALUE attribute list could not be
	// scanned, e.g. an unterminated quoted string.
	AttributeSyntax
)

func (k ParseErrorKind) String() string {
	switch k {
	case NotM3U8:
		return "not-m3u8"
	case MalformedTag:
		return "malformed-tag"
	case UnexpectedEOF:
		return "unexpected-eof"
	case AttributeSyntax:
		return "attribute-syntax"
	}
	return "unknown"
}

// ParseError reports an unusable playlist. Callers are expected to
// fall back to the original bytes, never to fail the request.
type ParseError struct {
	Kind ParseErrorKind
	Line int // 1-based source line number
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("playlist line %d: %s (%s)", e.Line, e.Msg, e.Kind)
}
