package proxy

import (
	"strings"
	"time"
)

type Config struct {
	// Sources maps a public name to the origin base URL it proxies.
	Sources map[string]string

	UpstreamTimeout time.Duration // deadline for plain origin fetches
	BlockingTimeout time.Duration // deadline for blocking playlist reloads

	PlaylistExpiration time.Duration // how long a fetched playlist stays fresh
	StaleExpiration    time.Duration // how long past freshness it may still be served
	CacheCleanupPeriod time.Duration // how often expired snapshots are dropped
}

func (c Config) withDefaultValues() Config {
	if c.UpstreamTimeout == 0 {
		c.UpstreamTimeout = 10 * time.Second
	}
	if c.BlockingTimeout == 0 {
		// blocking reloads legitimately sit idle at the origin until
		// the requested part exists
		c.BlockingTimeout = 30 * time.Second
	}
	if c.PlaylistExpiration == 0 {
		c.PlaylistExpiration = 500 * time.Millisecond
	}
	if c.StaleExpiration == 0 {
		c.StaleExpiration = 15 * time.Second
	}
	if c.CacheCleanupPeriod == 0 {
		c.CacheCleanupPeriod = 4 * time.Second
	}
	// ensure each base url ends with single /
	sources := make(map[string]string, len(c.Sources))
	for name, url := range c.Sources {
		sources[name] = strings.TrimRight(url, "/") + "/"
	}
	c.Sources = sources
	return c
}
