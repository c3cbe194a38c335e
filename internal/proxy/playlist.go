package proxy

import (
	"net/http"
	"strconv"

	"github.com/hlsedge/hlsedge/internal/origin"
	"github.com/hlsedge/hlsedge/pkg/llhls"
)

// Outcome classifies how a playlist request was answered.
type Outcome int

const (
	// OutcomeFull is the untransformed playlist, served either because
	// the client never asked for a delta or because the proxy failed
	// open on a playlist it could not transform.
	OutcomeFull Outcome = iota
	// OutcomeDelta is a successfully rendered delta update.
	OutcomeDelta
	// OutcomeError means no playlist bytes could be produced at all.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFull:
		return "full"
	case OutcomeDelta:
		return "delta"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

func (m *ModuleCtx) servePlaylist(w http.ResponseWriter, r *http.Request, sourceName, base, rest string) {
	query := r.URL.Query()
	skip := query.Get("_HLS_skip")
	mode := llhls.ParseSkipMode(skip)

	// the origin never sees the skip directive, it is answered here
	query.Del("_HLS_skip")
	upstreamQuery := query.Encode()

	snapKey := sourceName + "|" + rest + "|" + upstreamQuery
	snap, cache, err := m.snapshot(snapKey, upstreamURL(base, rest, upstreamQuery))
	if err != nil {
		m.respondError(w, err)
		return
	}

	if mode == llhls.SkipNone {
		m.respond(w, snap, cache, "")
		return
	}

	// delta variants are derived data, one per skip directive per
	// origin refresh
	variantKey := snapKey + "|skip=" + skip + "|gen=" + strconv.FormatInt(snap.FetchedAt.UnixNano(), 10)
	if variant, note, ok := m.store.Get(variantKey); ok {
		m.respond(w, variant, cache, note)
		return
	}

	body, note, outcome := m.transform(snap, mode)
	m.logger.Debug().
		Str("source", sourceName).
		Str("outcome", outcome.String()).
		Str("note", note).
		Msg("playlist transformed")

	variant := &origin.Snapshot{
		Body:      body,
		Header:    snap.Header,
		Status:    snap.Status,
		FetchedAt: snap.FetchedAt,
	}
	m.store.Set(variantKey, variant, note)
	m.respond(w, variant, cache, note)
}

// snapshot returns the current playlist bytes for key, fetching from
// the origin on a cache miss. When the origin fails, a snapshot inside
// the stale allowance is served instead of the error.
func (m *ModuleCtx) snapshot(key, url string) (*origin.Snapshot, string, error) {
	if snap, _, ok := m.store.Get(key); ok {
		return snap, "HIT", nil
	}

	snap, err := m.client.Fetch(url)
	if err != nil {
		if stale, ok := m.store.GetStale(key); ok {
			m.logger.Warn().Err(err).Str("url", url).Msg("origin failed, serving stale")
			return stale, "STALE", nil
		}
		return nil, "", err
	}

	m.store.Set(key, snap, "")
	return snap, "MISS", nil
}

// transform runs the skip transform, failing open: any playlist this
// proxy cannot understand is served in full, byte for byte.
func (m *ModuleCtx) transform(snap *origin.Snapshot, mode llhls.SkipMode) ([]byte, string, Outcome) {
	p, err := llhls.Parse(snap.Body)
	if err != nil {
		m.logger.Warn().Err(err).Msg("unparseable playlist, serving full")
		return snap.Body, "full;reason=parse-error", OutcomeFull
	}

	boundary, verdict := llhls.ComputeBoundary(p, mode)
	if verdict != llhls.Eligible {
		return snap.Body, "full;reason=" + verdict.String(), OutcomeFull
	}

	body, err := llhls.RenderDelta(p, boundary)
	if err != nil {
		// the boundary was computed above, this is a proxy fault and
		// must never reach the client
		m.logger.Error().Err(err).Msg("delta render failed, serving full")
		return snap.Body, "full;reason=render-error", OutcomeFull
	}

	return body, "delta;skipped=" + strconv.Itoa(boundary.Segments), OutcomeDelta
}

func (m *ModuleCtx) respond(w http.ResponseWriter, snap *origin.Snapshot, cache, note string) {
	header := w.Header()
	for k, vv := range snap.Header {
		for _, v := range vv {
			header.Add(k, v)
		}
	}
	header.Set("Content-Type", "application/vnd.apple.mpegurl")
	if header.Get("Cache-Control") == "" {
		header.Set("Cache-Control", "max-age=1")
	}
	header.Set("X-Cache", cache)
	if note != "" {
		header.Set("X-Delta", note)
	}

	w.WriteHeader(snap.Status)
	w.Write(snap.Body)
}

func (m *ModuleCtx) respondError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if se, ok := err.(*origin.StatusError); ok {
		status = se.Status
	}

	m.logger.Err(err).Str("outcome", OutcomeError.String()).Msg("unable to produce playlist")
	http.Error(w, http.StatusText(status), status)
}
