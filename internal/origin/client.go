package origin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Snapshot is one complete upstream response held in memory.
type Snapshot struct {
	Body      []byte
	Header    http.Header
	Status    int
	FetchedAt time.Time
}

// StatusError reports a non-2xx upstream response. Its body is
// discarded; callers decide which status to hand to the client.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.Status, http.StatusText(e.Status))
}

type Client struct {
	logger zerolog.Logger

	// fetch carries its own deadline, stream relies on the caller's
	// request context instead
	fetch  *http.Client
	stream *http.Client

	group singleflight.Group
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		logger: log.With().Str("module", "origin").Logger(),
		fetch:  &http.Client{Timeout: timeout},
		stream: &http.Client{},
	}
}

// Fetch downloads url into memory. Concurrent fetches of the same url
// are collapsed into a single upstream request, so a popular playlist
// costs one origin round trip per refresh no matter how many clients
// ask for it.
func (c *Client) Fetch(url string) (*Snapshot, error) {
	v, err, shared := c.group.Do(url, func() (interface{}, error) {
		return c.download(url)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Str("url", url).Msg("fetch collapsed")
	}

	snap := v.(*Snapshot)
	if snap.Status < 200 || snap.Status >= 300 {
		return nil, &StatusError{Status: snap.Status}
	}
	return snap, nil
}

func (c *Client) download(url string) (*Snapshot, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	// the transform works on the playlist text itself, upstream bytes
	// must arrive uncompressed
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.fetch.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	header := resp.Header.Clone()
	// body length changes per variant, let the server recount
	header.Del("Content-Length")

	return &Snapshot{
		Body:      body,
		Header:    header,
		Status:    resp.StatusCode,
		FetchedAt: time.Now(),
	}, nil
}

// Passthrough forwards the request to url and streams the response
// back untouched. Blocking playlist reloads and segment downloads go
// through here, they must not be buffered or rewritten.
func (c *Client) Passthrough(w http.ResponseWriter, r *http.Request, url string, timeout time.Duration) {
	ctx := r.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, url, nil)
	if err != nil {
		c.logger.Err(err).Str("url", url).Msg("unable to build upstream request")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	copyHeader(req.Header, r.Header)

	resp, err := c.stream.Do(req)
	if err != nil {
		c.logger.Err(err).Str("url", url).Msg("upstream request failed")
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		c.logger.Debug().Err(err).Str("url", url).Msg("client went away mid stream")
	}
}

// copyHeader copies everything but the Host header, which belongs to
// the upstream URL.
func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		if strings.EqualFold(k, "Host") {
			continue
		}
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
