package llhls

import "testing"

func Test_scanAttrs(t *testing.T) {
	t.Run("quoted values may contain commas", func(t *testing.T) {
		attrs, err := scanAttrs(`CODECS="avc1.4d401f,mp4a.40.2",BANDWIDTH=1280000`)
		if err != nil {
			t.Fatalf("scanAttrs() error = %v", err)
		}
		if len(attrs) != 2 {
			t.Fatalf("len(attrs) = %d, want 2", len(attrs))
		}
		if attrs[0].Key != "CODECS" || attrs[0].Val != "avc1.4d401f,mp4a.40.2" || !attrs[0].Quoted {
			t.Errorf("attrs[0] = %+v, want quoted CODECS", attrs[0])
		}
		if attrs[1].Key != "BANDWIDTH" || attrs[1].Val != "1280000" || attrs[1].Quoted {
			t.Errorf("attrs[1] = %+v, want unquoted BANDWIDTH", attrs[1])
		}
	})

	t.Run("unknown attributes are kept in order", func(t *testing.T) {
		attrs, err := scanAttrs(`DURATION=1.5,X-CUSTOM-FLAG=on,URI="p.mp4"`)
		if err != nil {
			t.Fatalf("scanAttrs() error = %v", err)
		}
		want := []string{"DURATION", "X-CUSTOM-FLAG", "URI"}
		if len(attrs) != len(want) {
			t.Fatalf("len(attrs) = %d, want %d", len(attrs), len(want))
		}
		for i, key := range want {
			if attrs[i].Key != key {
				t.Errorf("attrs[%d].Key = %q, want %q", i, attrs[i].Key, key)
			}
		}
		if v, ok := attrs.get("X-CUSTOM-FLAG"); !ok || v != "on" {
			t.Errorf("get(X-CUSTOM-FLAG) = %q, %v, want on, true", v, ok)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		attrs, err := scanAttrs("")
		if err != nil {
			t.Fatalf("scanAttrs() error = %v", err)
		}
		if len(attrs) != 0 {
			t.Errorf("len(attrs) = %d, want 0", len(attrs))
		}
	})

	t.Run("syntax errors", func(t *testing.T) {
		inputs := []string{
			"DURATION",
			"=5",
			`URI="p.mp4`,
			`URI="p.mp4"x`,
		}
		for _, in := range inputs {
			if _, err := scanAttrs(in); err == nil {
				t.Errorf("scanAttrs(%q) error = nil, want error", in)
			}
		}
	})
}
