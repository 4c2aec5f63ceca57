package label

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Label
	}{
		{"POSITIVE", Positive},
		{"pos", Positive},
		{" Net ", Neutral},
		{"NEUTRAL", Neutral},
		{"NEG", Negative},
		{"negative", Negative},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "MIXED", "1", "positif"} {
		_, err := Parse(in)
		if !errors.Is(err, internalerr.ErrDataFormat) {
			t.Errorf("Parse(%q) error = %v, want ErrDataFormat", in, err)
		}
	}

	_, err := Parse("MIXED")
	if !strings.Contains(err.Error(), `"MIXED"`) {
		t.Errorf("error should name the offending value, got %q", err)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for i, l := range All {
		if l.Index() != i {
			t.Errorf("%s.Index() = %d, want %d", l, l.Index(), i)
		}
		back, ok := FromIndex(i)
		if !ok || back != l {
			t.Errorf("FromIndex(%d) = %s, %v", i, back, ok)
		}
	}
	if _, ok := FromIndex(3); ok {
		t.Error("FromIndex(3) should fail")
	}
	if Label(0).Valid() {
		t.Error("zero label must be invalid")
	}
}

func TestTextMarshaling(t *testing.T) {
	b, err := Negative.MarshalText()
	if err != nil || string(b) != "NEGATIVE" {
		t.Fatalf("MarshalText = %q, %v", b, err)
	}
	var l Label
	if err := l.UnmarshalText([]byte("pos")); err != nil || l != Positive {
		t.Fatalf("UnmarshalText = %s, %v", l, err)
	}
	if _, err := Label(7).MarshalText(); err == nil {
		t.Error("invalid label should not marshal")
	}
}
