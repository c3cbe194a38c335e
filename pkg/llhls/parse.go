package llhls

import (
	"bytes"
	"strconv"
	"strings"
)

const utf8BOM = "\xef\xbb\xbf"

// Parse reads a media playlist. Interpreted tags feed the playlist
// attributes and segment list; every other line is retained verbatim.
// Errors are always *ParseError and mean the caller should serve the
// input bytes unmodified.
func Parse(b []byte) (*Playlist, error) {
	ps := &parser{
		p: &Playlist{versionIdx: -1, nl: "\n", srcLen: len(b)},
	}
	if err := ps.run(b); err != nil {
		return nil, err
	}
	return ps.p, nil
}

type parser struct {
	p *Playlist

	inHeader bool   // no part or EXTINF line seen yet
	pending  []Line // lines waiting for the next segment
	pre      []Line // pending captured when EXTINF arrived
	inf      string // EXTINF line waiting for its URI
	infDur   float64
	infLine  int
	lineNo   int
}

func (ps *parser) run(b []byte) error {
	ps.inHeader = true

	off := 0
	first := true
	for off < len(b) {
		var raw string
		if end := bytes.IndexByte(b[off:], '\n'); end < 0 {
			raw = string(b[off:])
			off = len(b)
		} else {
			raw = string(b[off : off+end+1])
			off += end + 1
		}
		ps.lineNo++

		if first {
			first = false
			if nl := eolOf(raw); nl != "" {
				ps.p.nl = nl
			}
			logical := strings.TrimPrefix(trimEOL(raw), utf8BOM)
			if logical != "#EXTM3U" {
				return &ParseError{Kind: NotM3U8, Line: ps.lineNo, Msg: "playlist must start with #EXTM3U"}
			}
			ps.push(RawLine{Text: raw, Tag: "EXTM3U"})
			continue
		}

		if err := ps.line(raw); err != nil {
			return err
		}
	}

	if first {
		return &ParseError{Kind: NotM3U8, Line: 1, Msg: "empty input"}
	}
	if ps.inf != "" {
		return &ParseError{Kind: UnexpectedEOF, Line: ps.infLine, Msg: "EXTINF with no URI line"}
	}

	// trailing parts and tags after the last complete segment
	ps.p.Lines = append(ps.p.Lines, ps.pending...)
	return nil
}

func (ps *parser) line(raw string) error {
	logical := trimEOL(raw)

	if logical == "" || logical[0] != '#' {
		// a URI line finalizes the open segment; everything else
		// (blank lines, master playlist URIs) stays verbatim
		if logical != "" && ps.inf != "" {
			ps.closeSegment(raw)
			return nil
		}
		ps.push(RawLine{Text: raw})
		return nil
	}

	if !strings.HasPrefix(logical, "#EXT") {
		// comment
		ps.push(RawLine{Text: raw})
		return nil
	}

	tag, val := splitTag(logical)
	switch tag {
	case "EXT-X-VERSION":
		n, err := strconv.Atoi(val)
		if err != nil {
			return ps.badTag(tag, err)
		}
		ps.p.Version = n
		ps.p.sawVersion = true
		if ps.inHeader {
			ps.p.versionIdx = len(ps.p.Lines)
		}
		ps.push(RawLine{Text: raw, Tag: tag})

	case "EXT-X-TARGETDURATION":
		d, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return ps.badTag(tag, err)
		}
		ps.p.TargetDuration = d
		ps.push(RawLine{Text: raw, Tag: tag})

	case "EXT-X-MEDIA-SEQUENCE":
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return ps.badTag(tag, err)
		}
		ps.p.MediaSequence = n
		ps.push(RawLine{Text: raw, Tag: tag})

	case "EXT-X-PART-INF":
		attrs, err := scanAttrs(val)
		if err != nil {
			return ps.badAttrs(tag, err)
		}
		if v, ok := attrs.get("PART-TARGET"); ok {
			d, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return ps.badTag(tag, err)
			}
			ps.p.PartTarget = d
		}
		ps.push(RawLine{Text: raw, Tag: tag})

	case "EXT-X-SERVER-CONTROL":
		attrs, err := scanAttrs(val)
		if err != nil {
			return ps.badAttrs(tag, err)
		}
		sc := &ServerControl{}
		for _, a := range attrs {
			switch a.Key {
			case "CAN-SKIP-UNTIL":
				d, err := strconv.ParseFloat(a.Val, 64)
				if err != nil {
					return ps.badTag(tag, err)
				}
				sc.CanSkipUntil = d
			case "CAN-SKIP-DATERANGES":
				sc.CanSkipDateranges = a.Val == "YES"
			case "CAN-BLOCK-RELOAD":
				sc.CanBlockReload = a.Val == "YES"
			case "HOLD-BACK":
				d, err := strconv.ParseFloat(a.Val, 64)
				if err != nil {
					return ps.badTag(tag, err)
				}
				sc.HoldBack = d
			case "PART-HOLD-BACK":
				d, err := strconv.ParseFloat(a.Val, 64)
				if err != nil {
					return ps.badTag(tag, err)
				}
				sc.PartHoldBack = d
			}
		}
		ps.p.ServerControl = sc
		ps.push(RawLine{Text: raw, Tag: tag})

	case "EXT-X-ENDLIST":
		ps.p.Endlist = true
		ps.push(RawLine{Text: raw, Tag: tag})

	case "EXT-X-PROGRAM-DATE-TIME", "EXT-X-DATERANGE":
		// These describe the next media segment, so even ahead of the
		// first EXTINF they belong to the segment run, not the header.
		ps.inHeader = false
		ps.push(RawLine{Text: raw, Tag: tag})

	case "EXTINF":
		if ps.inf != "" {
			return &ParseError{Kind: MalformedTag, Line: ps.lineNo, Msg: "EXTINF before previous segment URI"}
		}
		dur := val
		if c := strings.IndexByte(dur, ','); c >= 0 {
			dur = dur[:c]
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(dur), 64)
		if err != nil {
			return ps.badTag(tag, err)
		}
		ps.inHeader = false
		ps.pre = ps.pending
		ps.pending = nil
		ps.inf = raw
		ps.infDur = d
		ps.infLine = ps.lineNo

	case "EXT-X-PART":
		attrs, err := scanAttrs(val)
		if err != nil {
			return ps.badAttrs(tag, err)
		}
		v, ok := attrs.get("DURATION")
		if !ok {
			return &ParseError{Kind: MalformedTag, Line: ps.lineNo, Msg: "EXT-X-PART without DURATION"}
		}
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return ps.badTag(tag, err)
		}
		uri, _ := attrs.get("URI")
		ind, _ := attrs.get("INDEPENDENT")
		gap, _ := attrs.get("GAP")
		ps.inHeader = false
		ps.push(PartLine{
			Text:        raw,
			Duration:    d,
			URI:         uri,
			Independent: ind == "YES",
			Gap:         gap == "YES",
		})

	default:
		ps.push(RawLine{Text: raw, Tag: tag})
	}
	return nil
}

// push routes a finished line: header lines go straight to the
// document, everything after the first part or EXTINF accumulates
// onto the next segment.
func (ps *parser) push(l Line) {
	if ps.inHeader {
		ps.p.Lines = append(ps.p.Lines, l)
		return
	}
	ps.pending = append(ps.pending, l)
}

func (ps *parser) closeSegment(uriRaw string) {
	seg := &SegmentLine{
		Pre:      ps.pre,
		Inf:      ps.inf,
		Mid:      ps.pending,
		URILine:  uriRaw,
		Duration: ps.infDur,
	}
	ps.pre = nil
	ps.pending = nil
	ps.inf = ""

	ps.p.Lines = append(ps.p.Lines, seg)
	ps.p.Segments = append(ps.p.Segments, seg)
}

func (ps *parser) badTag(tag string, err error) error {
	return &ParseError{Kind: MalformedTag, Line: ps.lineNo, Msg: tag + ": " + err.Error()}
}

func (ps *parser) badAttrs(tag string, err error) error {
	return &ParseError{Kind: AttributeSyntax, Line: ps.lineNo, Msg: tag + ": " + err.Error()}
}

func splitTag(logical string) (tag, val string) {
	rest := logical[1:]
	if c := strings.IndexByte(rest, ':'); c >= 0 {
		return rest[:c], rest[c+1:]
	}
	return rest, ""
}
