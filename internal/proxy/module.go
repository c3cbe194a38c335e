package proxy

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hlsedge/hlsedge/internal/origin"
)

var sourceRegex = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

type ModuleCtx struct {
	logger     zerolog.Logger
	pathPrefix string
	config     Config

	client *origin.Client
	store  *origin.Store
}

func New(pathPrefix string, config *Config) *ModuleCtx {
	cfg := config.withDefaultValues()

	return &ModuleCtx{
		logger:     log.With().Str("module", "proxy").Logger(),
		pathPrefix: pathPrefix,
		config:     cfg,

		client: origin.NewClient(cfg.UpstreamTimeout),
		store:  origin.NewStore(cfg.PlaylistExpiration, cfg.StaleExpiration, cfg.CacheCleanupPeriod),
	}
}

func (m *ModuleCtx) Shutdown() {
	m.store.Shutdown()
}

func (m *ModuleCtx) ConfigReload(config *Config) {
	cfg := config.withDefaultValues()

	// cached snapshots may belong to origins that just changed
	m.store.Shutdown()
	m.config = cfg
	m.client = origin.NewClient(cfg.UpstreamTimeout)
	m.store = origin.NewStore(cfg.PlaylistExpiration, cfg.StaleExpiration, cfg.CacheCleanupPeriod)
}

func (m *ModuleCtx) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !strings.HasPrefix(r.URL.Path, m.pathPrefix) {
		http.NotFound(w, r)
		return
	}

	p := r.URL.Path
	// remove path prefix
	p = strings.TrimPrefix(p, m.pathPrefix)
	// remove leading /
	p = strings.TrimLeft(p, "/")
	// split into source name and origin path
	s := strings.SplitN(p, "/", 2)

	sourceName := s[0]

	// check if parameters match regex
	if !sourceRegex.MatchString(sourceName) {
		http.Error(w, "400 invalid parameters", http.StatusBadRequest)
		return
	}

	base, ok := m.config.Sources[sourceName]
	if !ok {
		http.Error(w, "404 source not found", http.StatusNotFound)
		return
	}

	rest := ""
	if len(s) == 2 {
		rest = s[1]
	}
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()

	// A blocking reload parks at the origin until the named part
	// exists. It is pinned to one client and one moment, caching or
	// rewriting it would stall every other client, so it passes
	// through verbatim with its whole query string.
	_, msn := query["_HLS_msn"]
	_, part := query["_HLS_part"]
	if msn || part {
		m.client.Passthrough(w, r, upstreamURL(base, rest, r.URL.RawQuery), m.config.BlockingTimeout)
		return
	}

	// segments, parts and everything else that is not a playlist
	if !strings.HasSuffix(rest, ".m3u8") {
		m.client.Passthrough(w, r, upstreamURL(base, rest, r.URL.RawQuery), m.config.UpstreamTimeout)
		return
	}

	m.servePlaylist(w, r, sourceName, base, rest)
}

func upstreamURL(base, rest, rawQuery string) string {
	url := base + rest
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	return url
}
