package llhls

// SkipMode is the client's delta intent, carried by the _HLS_skip
// query parameter.
type SkipMode int

const (
	// SkipNone means no delta was requested.
	SkipNone SkipMode = iota
	// SkipSegments is _HLS_skip=YES: elide old segments.
	SkipSegments
	// SkipDateranges is _HLS_skip=v2: additionally elide old
	// EXT-X-DATERANGE tags when the origin allows it.
	SkipDateranges
)

// ParseSkipMode maps an _HLS_skip value to a SkipMode. Values are
// matched exactly; anything unrecognized means no delta.
func ParseSkipMode(v string) SkipMode {
	switch v {
	case "YES":
		return SkipSegments
	case "v2":
		return SkipDateranges
	}
	return SkipNone
}

// Verdict says whether a delta update may be produced for a playlist.
// Everything except Eligible is a normal outcome, not an error: the
// caller serves the full playlist instead.
type Verdict int

const (
	Eligible Verdict = iota
	// NoSkipBoundary: the origin does not advertise CAN-SKIP-UNTIL.
	NoSkipBoundary
	// BoundaryTooSmall: CAN-SKIP-UNTIL is below six target durations,
	// the protocol floor. The origin's contract is not silently
	// clamped into compliance.
	BoundaryTooSmall
	// PlaylistEnded: the playlist carries EXT-X-ENDLIST.
	PlaylistEnded
	// PlaylistTooShort: fewer than two complete segments, so nothing
	// could ever be skipped.
	PlaylistTooShort
)

func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case NoSkipBoundary:
		return "no-skip-boundary"
	case BoundaryTooSmall:
		return "boundary-too-small"
	case PlaylistEnded:
		return "playlist-ended"
	case PlaylistTooShort:
		return "playlist-too-short"
	}
	return "unknown"
}

// SkipBoundary is the computed delta decision: how many leading
// complete segments to elide, and whether skipped date ranges are
// removed outright instead of being carried over.
type SkipBoundary struct {
	Segments       int
	DropDateranges bool
}

// CAN-SKIP-UNTIL must cover at least this many target durations.
const minSkipWindowFactor = 6

// ComputeBoundary decides whether a delta update is legal for p and,
// if so, how many leading segments it may elide. The boundary is the
// largest count of complete leading segments whose cumulative
// duration fits below (total playlist duration - CAN-SKIP-UNTIL).
// Partial segments are never skipped, nor is the most recent segment.
// The computation is pure: identical playlist and mode always yield
// an identical boundary.
func ComputeBoundary(p *Playlist, mode SkipMode) (SkipBoundary, Verdict) {
	sc := p.ServerControl
	if sc == nil || sc.CanSkipUntil <= 0 {
		return SkipBoundary{}, NoSkipBoundary
	}
	if sc.CanSkipUntil < minSkipWindowFactor*p.TargetDuration {
		return SkipBoundary{}, BoundaryTooSmall
	}
	if p.Endlist {
		return SkipBoundary{}, PlaylistEnded
	}
	if len(p.Segments) < 2 {
		return SkipBoundary{}, PlaylistTooShort
	}

	cutoff := p.TotalDuration() - sc.CanSkipUntil

	n := 0
	var sum float64
	for _, seg := range p.Segments {
		sum += seg.Duration
		if sum > cutoff {
			break
		}
		n++
	}
	if most := len(p.Segments) - 1; n > most {
		n = most
	}

	return SkipBoundary{
		Segments:       n,
		DropDateranges: mode == SkipDateranges && sc.CanSkipDateranges,
	}, Eligible
}
