package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRunes(t *testing.T) {
	got, cut := TruncateRunes("a"+strings.Repeat("é", 10), 5)
	if !cut || got != "a"+strings.Repeat("é", 4) {
		t.Fatalf("expected five runes, got %q cut=%t", got, cut)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf8, got %q", got)
	}

	got, cut = TruncateRunes("héllo", 5)
	if cut || got != "héllo" {
		t.Fatalf("expected untouched string, got %q cut=%t", got, cut)
	}
	if got, cut := TruncateRunes("abc", 0); got != "" || !cut {
		t.Fatalf("expected empty result, got %q cut=%t", got, cut)
	}
}
