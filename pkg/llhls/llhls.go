// Package llhls parses Low-Latency HLS media playlists and derives
// delta updates from them using the EXT-X-SKIP mechanism.
//
// The package is deliberately not a playlist validator: it interprets
// only the tags that drive the delta computation and keeps every
// other line verbatim, so that content it does not understand passes
// through byte-identical. All operations are pure; parsing a playlist
// and rendering it yields the exact input bytes.
package llhls

import "strings"

// Line is a single entry of a parsed playlist: an uninterpreted
// RawLine, a PartLine or a complete *SegmentLine.
type Line interface {
	appendSource(dst []byte) []byte
}

// RawLine is a playlist line this package does not interpret. Text
// holds the exact source bytes including the line terminator. Tag is
// the tag name without the leading '#' for #EXT lines, empty for
// comments, blank lines and URIs.
type RawLine struct {
	Text string
	Tag  string
}

func (l RawLine) appendSource(dst []byte) []byte {
	return append(dst, l.Text...)
}

// PartLine is one EXT-X-PART tag, a partial media segment.
type PartLine struct {
	Text        string // exact source line
	Duration    float64
	URI         string
	Independent bool
	Gap         bool
}

func (l PartLine) appendSource(dst []byte) []byte {
	return append(dst, l.Text...)
}

// SegmentLine is one complete media segment: the lines that preceded
// its EXTINF in source order (parts, date ranges, keys, ...), the
// EXTINF line itself, any lines between EXTINF and the URI, and the
// URI line that finalized the segment.
type SegmentLine struct {
	Pre      []Line
	Inf      string // the #EXTINF line, verbatim
	Mid      []Line // lines between EXTINF and the URI, usually empty
	URILine  string // the URI line, verbatim
	Duration float64
}

func (s *SegmentLine) appendSource(dst []byte) []byte {
	for _, ln := range s.Pre {
		dst = ln.appendSource(dst)
	}
	dst = append(dst, s.Inf...)
	for _, ln := range s.Mid {
		dst = ln.appendSource(dst)
	}
	return append(dst, s.URILine...)
}

// URI returns the segment URI without the line terminator.
func (s *SegmentLine) URI() string {
	return trimEOL(s.URILine)
}

// Parts returns the partial segments belonging to this segment.
func (s *SegmentLine) Parts() []PartLine {
	var parts []PartLine
	for _, ln := range s.Pre {
		if part, ok := ln.(PartLine); ok {
			parts = append(parts, part)
		}
	}
	for _, ln := range s.Mid {
		if part, ok := ln.(PartLine); ok {
			parts = append(parts, part)
		}
	}
	return parts
}

// ServerControl carries the EXT-X-SERVER-CONTROL attributes relevant
// to delta updates. Durations are in seconds, zero when the origin
// did not advertise them.
type ServerControl struct {
	CanSkipUntil      float64
	CanSkipDateranges bool
	CanBlockReload    bool
	HoldBack          float64
	PartHoldBack      float64
}

// Playlist is a parsed media playlist. Lines covers the entire
// document in source order: header lines, complete segments and the
// in-flight tail (trailing parts, rendition reports, EXT-X-ENDLIST).
// Segments lists the complete segments oldest first; its elements are
// the same values that appear in Lines.
type Playlist struct {
	Version        int
	TargetDuration float64
	MediaSequence  int64
	PartTarget     float64
	ServerControl  *ServerControl
	Endlist        bool

	Lines    []Line
	Segments []*SegmentLine

	versionIdx int    // index in Lines of the header EXT-X-VERSION line, -1 if absent
	sawVersion bool   // any EXT-X-VERSION line seen at all
	nl         string // dominant line terminator
	srcLen     int
}

// TotalDuration is the sum of all complete segment durations plus the
// durations of trailing partial segments not yet closed by a segment.
func (p *Playlist) TotalDuration() float64 {
	var total float64
	for _, seg := range p.Segments {
		total += seg.Duration
	}
	for _, ln := range p.Lines {
		if part, ok := ln.(PartLine); ok {
			total += part.Duration
		}
	}
	return total
}

// Current returns the most recent complete segment, nil if the
// playlist has none.
func (p *Playlist) Current() *SegmentLine {
	if len(p.Segments) == 0 {
		return nil
	}
	return p.Segments[len(p.Segments)-1]
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

func eolOf(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return "\r\n"
	}
	if strings.HasSuffix(s, "\n") {
		return "\n"
	}
	return ""
}
