package llhls

import (
	"fmt"
	"strings"
	"testing"
)

func Test_ParseSkipMode(t *testing.T) {
	tests := []struct {
		input string
		want  SkipMode
	}{
		{"YES", SkipSegments},
		{"v2", SkipDateranges},
		{"", SkipNone},
		{"yes", SkipNone},
		{"V2", SkipNone},
		{"NO", SkipNone},
		{"YES,v2", SkipNone},
	}

	for _, tt := range tests {
		if got := ParseSkipMode(tt.input); got != tt.want {
			t.Errorf("ParseSkipMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func Test_ComputeBoundary(t *testing.T) {
	t.Run("window of twelve skips two of eight", func(t *testing.T) {
		p := mustParse(t, livePlaylist)
		b, v := ComputeBoundary(p, SkipSegments)
		if v != Eligible {
			t.Fatalf("ComputeBoundary() verdict = %v, want %v", v, Eligible)
		}
		if b.Segments != 2 {
			t.Errorf("boundary.Segments = %d, want 2", b.Segments)
		}
		if b.DropDateranges {
			t.Error("boundary.DropDateranges = true, want false")
		}
	})

	t.Run("window below six target durations", func(t *testing.T) {
		small := strings.Replace(livePlaylist, "CAN-SKIP-UNTIL=12.0", "CAN-SKIP-UNTIL=10.0", 1)
		p := mustParse(t, small)
		if _, v := ComputeBoundary(p, SkipSegments); v != BoundaryTooSmall {
			t.Errorf("ComputeBoundary() verdict = %v, want %v", v, BoundaryTooSmall)
		}
	})

	t.Run("no advertised window", func(t *testing.T) {
		bare := strings.Replace(livePlaylist, "#EXT-X-SERVER-CONTROL:CAN-SKIP-UNTIL=12.0\n", "", 1)
		p := mustParse(t, bare)
		if _, v := ComputeBoundary(p, SkipSegments); v != NoSkipBoundary {
			t.Errorf("ComputeBoundary() verdict = %v, want %v", v, NoSkipBoundary)
		}
	})

	t.Run("server control without skip attribute", func(t *testing.T) {
		bare := strings.Replace(livePlaylist, "CAN-SKIP-UNTIL=12.0", "CAN-BLOCK-RELOAD=YES", 1)
		p := mustParse(t, bare)
		if _, v := ComputeBoundary(p, SkipSegments); v != NoSkipBoundary {
			t.Errorf("ComputeBoundary() verdict = %v, want %v", v, NoSkipBoundary)
		}
	})

	t.Run("ended playlist", func(t *testing.T) {
		p := mustParse(t, livePlaylist+"#EXT-X-ENDLIST\n")
		if _, v := ComputeBoundary(p, SkipSegments); v != PlaylistEnded {
			t.Errorf("ComputeBoundary() verdict = %v, want %v", v, PlaylistEnded)
		}
	})

	t.Run("single segment playlist", func(t *testing.T) {
		p := mustParse(t, "#EXTM3U\n#EXT-X-TARGETDURATION:2\n#EXT-X-SERVER-CONTROL:CAN-SKIP-UNTIL=12.0\n#EXTINF:2.00000,\na.ts\n")
		if _, v := ComputeBoundary(p, SkipSegments); v != PlaylistTooShort {
			t.Errorf("ComputeBoundary() verdict = %v, want %v", v, PlaylistTooShort)
		}
	})

	t.Run("window covering the whole playlist skips nothing", func(t *testing.T) {
		wide := strings.Replace(livePlaylist, "CAN-SKIP-UNTIL=12.0", "CAN-SKIP-UNTIL=16.0", 1)
		p := mustParse(t, wide)
		b, v := ComputeBoundary(p, SkipSegments)
		if v != Eligible {
			t.Fatalf("ComputeBoundary() verdict = %v, want %v", v, Eligible)
		}
		if b.Segments != 0 {
			t.Errorf("boundary.Segments = %d, want 0", b.Segments)
		}
	})

	t.Run("newest segment survives even a tight window", func(t *testing.T) {
		// Two whole segments plus enough in-flight parts that the
		// retained window fits inside the parts alone.
		var src strings.Builder
		src.WriteString("#EXTM3U\n#EXT-X-TARGETDURATION:2\n#EXT-X-SERVER-CONTROL:CAN-SKIP-UNTIL=12.0\n")
		src.WriteString("#EXTINF:2.00000,\na.ts\n#EXTINF:2.00000,\nb.ts\n")
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&src, "#EXT-X-PART:DURATION=2.00000,URI=\"c.%d.mp4\"\n", i)
		}

		p := mustParse(t, src.String())
		b, v := ComputeBoundary(p, SkipSegments)
		if v != Eligible {
			t.Fatalf("ComputeBoundary() verdict = %v, want %v", v, Eligible)
		}
		if b.Segments != 1 {
			t.Errorf("boundary.Segments = %d, want 1", b.Segments)
		}
	})

	t.Run("larger windows never skip more", func(t *testing.T) {
		p := mustParse(t, livePlaylist)
		prev := len(p.Segments)
		for until := 12.0; until <= 16.0; until += 0.5 {
			p.ServerControl.CanSkipUntil = until
			b, v := ComputeBoundary(p, SkipSegments)
			if v != Eligible {
				t.Fatalf("CAN-SKIP-UNTIL=%v verdict = %v, want %v", until, v, Eligible)
			}
			if b.Segments > prev {
				t.Errorf("CAN-SKIP-UNTIL=%v skips %d segments, narrower window skipped %d", until, b.Segments, prev)
			}
			prev = b.Segments
		}
	})

	t.Run("date range removal needs v2 and the origin's consent", func(t *testing.T) {
		consenting := mustParse(t, llPlaylist)
		silent := mustParse(t, strings.Replace(llPlaylist, "CAN-SKIP-DATERANGES=YES,", "", 1))

		tests := []struct {
			name string
			p    *Playlist
			mode SkipMode
			want bool
		}{
			{"v2 with consent", consenting, SkipDateranges, true},
			{"plain skip with consent", consenting, SkipSegments, false},
			{"v2 without consent", silent, SkipDateranges, false},
		}
		for _, tt := range tests {
			b, v := ComputeBoundary(tt.p, tt.mode)
			if v != Eligible {
				t.Fatalf("%s: verdict = %v, want %v", tt.name, v, Eligible)
			}
			if b.DropDateranges != tt.want {
				t.Errorf("%s: DropDateranges = %v, want %v", tt.name, b.DropDateranges, tt.want)
			}
		}
	})
}
