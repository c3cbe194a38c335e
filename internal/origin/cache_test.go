package origin

import (
	"testing"
	"time"
)

func testSnapshot(body string) *Snapshot {
	return &Snapshot{Body: []byte(body), Status: 200, FetchedAt: time.Now()}
}

func Test_Store(t *testing.T) {
	t.Run("fresh hit returns the snapshot and its note", func(t *testing.T) {
		s := NewStore(time.Second, time.Second, time.Second)
		defer s.Shutdown()

		s.Set("k", testSnapshot("#EXTM3U\n"), "skipped=2")

		snap, note, ok := s.Get("k")
		if !ok {
			t.Fatal("Get() ok = false, want true")
		}
		if string(snap.Body) != "#EXTM3U\n" {
			t.Errorf("Body = %q, want #EXTM3U\\n", snap.Body)
		}
		if note != "skipped=2" {
			t.Errorf("note = %q, want skipped=2", note)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		s := NewStore(time.Second, time.Second, time.Second)
		if _, _, ok := s.Get("nope"); ok {
			t.Error("Get() ok = true, want false")
		}
		if _, ok := s.GetStale("nope"); ok {
			t.Error("GetStale() ok = true, want false")
		}
	})

	t.Run("expired entry misses but still serves stale", func(t *testing.T) {
		s := NewStore(10*time.Millisecond, time.Second, time.Second)
		defer s.Shutdown()

		s.Set("k", testSnapshot("old"), "")
		time.Sleep(30 * time.Millisecond)

		if _, _, ok := s.Get("k"); ok {
			t.Error("Get() ok = true, want false after expiry")
		}
		snap, ok := s.GetStale("k")
		if !ok {
			t.Fatal("GetStale() ok = false, want true inside stale allowance")
		}
		if string(snap.Body) != "old" {
			t.Errorf("Body = %q, want old", snap.Body)
		}
	})

	t.Run("past the stale allowance nothing is served", func(t *testing.T) {
		s := NewStore(5*time.Millisecond, 10*time.Millisecond, time.Second)
		defer s.Shutdown()

		s.Set("k", testSnapshot("dead"), "")
		time.Sleep(40 * time.Millisecond)

		if _, ok := s.GetStale("k"); ok {
			t.Error("GetStale() ok = true, want false past stale allowance")
		}
	})

	t.Run("cleanup drops dead entries", func(t *testing.T) {
		s := NewStore(5*time.Millisecond, 5*time.Millisecond, 10*time.Millisecond)
		defer s.Shutdown()

		s.Set("k", testSnapshot("dead"), "")
		time.Sleep(60 * time.Millisecond)

		s.entriesMu.RLock()
		left := len(s.entries)
		s.entriesMu.RUnlock()
		if left != 0 {
			t.Errorf("entries left = %d, want 0", left)
		}
	})
}
