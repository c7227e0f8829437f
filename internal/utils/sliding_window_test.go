package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSlidingWindowAdd(t *testing.T) {
	window := NewSlidingWindow(2 * time.Second)
	now := time.Now()
	if count := window.Add("c1", now); count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
	window.Add("c1", now.Add(500*time.Millisecond))
	window.Add("c2", now.Add(500*time.Millisecond))
	if count := window.Count("c1", now.Add(1*time.Second)); count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
	if count := window.Count("c1", now.Add(3*time.Second)); count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
}

func TestSlidingWindowAllow(t *testing.T) {
	window := NewSlidingWindow(time.Second)
	now := time.Now()
	if !window.Allow("c1", 1, now) {
		t.Fatalf("expected first hit allowed")
	}
	if window.Allow("c1", 1, now.Add(500*time.Millisecond)) {
		t.Fatalf("expected second hit inside the window rejected")
	}
	if !window.Allow("c2", 1, now.Add(500*time.Millisecond)) {
		t.Fatalf("expected other key allowed")
	}
	if !window.Allow("c1", 1, now.Add(1100*time.Millisecond)) {
		t.Fatalf("expected hit allowed after the window")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	if err := WriteFileAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != `{"a":1}` {
		t.Fatalf("expected written data, got %q %v", data, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed")
	}
}
