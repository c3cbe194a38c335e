package origin

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type entry struct {
	snap    *Snapshot
	note    string
	expires time.Time
}

// Store keeps snapshots for their freshness window plus a stale
// allowance, so a briefly failing origin can be papered over with
// slightly old data instead of an error.
type Store struct {
	logger zerolog.Logger

	ttl    time.Duration
	stale  time.Duration
	period time.Duration

	entries   map[string]entry
	entriesMu sync.RWMutex

	cleanup   bool
	cleanupMu sync.RWMutex
	shutdown  chan struct{}
}

func NewStore(ttl, stale, cleanupPeriod time.Duration) *Store {
	return &Store{
		logger:  log.With().Str("module", "origin").Str("submodule", "store").Logger(),
		ttl:     ttl,
		stale:   stale,
		period:  cleanupPeriod,
		entries: map[string]entry{},
	}
}

// Get returns a fresh snapshot and the note recorded with it.
func (s *Store) Get(key string) (*Snapshot, string, bool) {
	s.entriesMu.RLock()
	e, ok := s.entries[key]
	s.entriesMu.RUnlock()

	if !ok {
		s.logger.Debug().Str("key", key).Msg("cache miss")
		return nil, "", false
	}

	if time.Now().After(e.expires) {
		return nil, "", false
	}

	s.logger.Debug().Str("key", key).Msg("cache hit")
	return e.snap, e.note, true
}

// GetStale returns a snapshot past its freshness window but still
// inside the stale allowance.
func (s *Store) GetStale(key string) (*Snapshot, bool) {
	s.entriesMu.RLock()
	e, ok := s.entries[key]
	s.entriesMu.RUnlock()

	if !ok || time.Now().After(e.expires.Add(s.stale)) {
		return nil, false
	}

	s.logger.Debug().Str("key", key).Msg("serving stale")
	return e.snap, true
}

func (s *Store) Set(key string, snap *Snapshot, note string) {
	s.entriesMu.Lock()
	s.entries[key] = entry{
		snap:    snap,
		note:    note,
		expires: time.Now().Add(s.ttl),
	}
	s.entriesMu.Unlock()

	// start periodic cleanup if not running
	s.cleanupStart()
}

func (s *Store) Shutdown() {
	s.cleanupStop()
}

func (s *Store) clearExpired() {
	storeSize := 0

	s.entriesMu.Lock()
	for key, e := range s.entries {
		// remove entries that are past even the stale allowance
		if time.Now().After(e.expires.Add(s.stale)) {
			delete(s.entries, key)
			s.logger.Debug().Str("key", key).Msg("cache cleanup remove expired")
		} else {
			storeSize++
		}
	}
	s.entriesMu.Unlock()

	if storeSize == 0 {
		s.cleanupStop()
	}
}

func (s *Store) cleanupStart() {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()

	// if already running
	if s.cleanup {
		return
	}

	s.shutdown = make(chan struct{})
	s.cleanup = true

	go func() {
		s.logger.Debug().Msg("cleanup started")

		ticker := time.NewTicker(s.period)
		defer ticker.Stop()

		for {
			select {
			case <-s.shutdown:
				return
			case <-ticker.C:
				s.clearExpired()
			}
		}
	}()
}

func (s *Store) cleanupStop() {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()

	// if not running
	if !s.cleanup {
		return
	}

	s.cleanup = false
	close(s.shutdown)

	s.logger.Debug().Msg("cleanup stopped")
}
