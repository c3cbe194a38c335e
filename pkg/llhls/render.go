package llhls

import (
	"fmt"
	"strconv"
	"strings"
)

// Source reconstructs the playlist exactly as it was parsed.
func (p *Playlist) Source() []byte {
	dst := make([]byte, 0, p.srcLen)
	for _, ln := range p.Lines {
		dst = ln.appendSource(dst)
	}
	return dst
}

// RenderDelta rewrites p as a delta update that elides the first
// b.Segments complete segments behind an EXT-X-SKIP tag. Every
// retained line is emitted byte-identical to the source. The only
// rewritten line is EXT-X-VERSION: a skip tag requires version 9,
// removing date ranges requires 10. Date ranges and any other tags
// found among the skipped segments are hoisted to just after the
// skip tag, so the client's view of playlist state stays intact;
// only timestamps and segment content of the skipped region are
// dropped.
//
// Asking to skip more segments than can be skipped is a programming
// fault and returns an error; callers degrade to the full playlist.
func RenderDelta(p *Playlist, b SkipBoundary) ([]byte, error) {
	if b.Segments < 0 || b.Segments >= len(p.Segments) {
		return nil, fmt.Errorf("cannot skip %d of %d segments", b.Segments, len(p.Segments))
	}

	var hoisted []Line
	var removedIDs []string
	for _, seg := range p.Segments[:b.Segments] {
		hoisted, removedIDs = collectSkipped(seg.Pre, b, hoisted, removedIDs)
		hoisted, removedIDs = collectSkipped(seg.Mid, b, hoisted, removedIDs)
	}

	version := 9
	if len(removedIDs) > 0 {
		version = 10
	}

	out := make([]byte, 0, p.srcLen+64)
	segIdx := 0
	skipDone := false
	for i, ln := range p.Lines {
		if seg, ok := ln.(*SegmentLine); ok {
			if !skipDone {
				out = appendSkipTag(out, b.Segments, removedIDs, p.nl)
				for _, h := range hoisted {
					out = h.appendSource(out)
				}
				skipDone = true
			}
			if segIdx >= b.Segments {
				out = seg.appendSource(out)
			}
			segIdx++
			continue
		}

		if i == p.versionIdx && p.Version < version {
			raw := ln.(RawLine)
			out = append(out, "#EXT-X-VERSION:"...)
			out = strconv.AppendInt(out, int64(version), 10)
			out = append(out, eolOf(raw.Text)...)
			continue
		}

		out = ln.appendSource(out)

		if i == 0 && !p.sawVersion {
			out = append(out, "#EXT-X-VERSION:"...)
			out = strconv.AppendInt(out, int64(version), 10)
			out = append(out, p.nl...)
		}
	}

	return out, nil
}

// collectSkipped sorts the non-segment lines of a skipped segment
// into lines that must survive the skip and date range IDs that are
// being removed outright.
func collectSkipped(lines []Line, b SkipBoundary, hoisted []Line, removed []string) ([]Line, []string) {
	for _, ln := range lines {
		raw, ok := ln.(RawLine)
		if !ok {
			// parts vanish with their segment
			continue
		}
		switch raw.Tag {
		case "", "EXT-X-PROGRAM-DATE-TIME":
			// blanks, comments, stray URIs and timestamps of skipped
			// segments carry no meaning forward
		case "EXT-X-DATERANGE":
			if b.DropDateranges {
				if id, ok := daterangeID(raw.Text); ok && id != "" {
					removed = append(removed, id)
					continue
				}
			}
			hoisted = append(hoisted, raw)
		default:
			// keys, maps, discontinuities and unknown tags still
			// apply to the retained suffix
			hoisted = append(hoisted, raw)
		}
	}
	return hoisted, removed
}

func appendSkipTag(dst []byte, skipped int, removedIDs []string, nl string) []byte {
	dst = append(dst, "#EXT-X-SKIP:SKIPPED-SEGMENTS="...)
	dst = strconv.AppendInt(dst, int64(skipped), 10)
	if len(removedIDs) > 0 {
		dst = append(dst, `,RECENTLY-REMOVED-DATERANGES="`...)
		dst = append(dst, strings.Join(removedIDs, "\t")...)
		dst = append(dst, '"')
	}
	return append(dst, nl...)
}

// daterangeID extracts the ID attribute of an EXT-X-DATERANGE line.
func daterangeID(text string) (string, bool) {
	_, val := splitTag(trimEOL(text))
	attrs, err := scanAttrs(val)
	if err != nil {
		return "", false
	}
	return attrs.get("ID")
}
