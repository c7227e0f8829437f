package utils

import "testing"

func TestCleanImageURL(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"https://cdn.example.com/a.png?format=webp&quality=lossless", "https://cdn.example.com/a.png?format=webp"},
		{"https://cdn.example.com/a.png?quality=lossless&format=webp", "https://cdn.example.com/a.png?format=webp"},
		{"https://cdn.example.com/a.png?quality=lossless", "https://cdn.example.com/a.png"},
		{"https://x/y.png", "https://x/y.png"},
		{"https://bücher.example/cover.png?quality=lossless&width=64", "https://xn--bcher-kva.example/cover.png?width=64"},
	}
	for _, tc := range cases {
		if got := CleanImageURL(tc.input); got != tc.want {
			t.Fatalf("CleanImageURL(%q): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}

func TestIsHTTPURL(t *testing.T) {
	if !IsHTTPURL("https://example.com/a.png") {
		t.Fatalf("expected https url to be accepted")
	}
	if IsHTTPURL("javascript:alert(1)") || IsHTTPURL("not a url") {
		t.Fatalf("expected non-http input to be rejected")
	}
}
