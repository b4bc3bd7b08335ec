package core

import (
	"strings"
	"testing"
)

// TestRegistry_ShowAll verifies the diagnostic dump lists every queue and
// share in registration order
func TestRegistry_ShowAll(t *testing.T) {
	reg := NewRegistry()

	_, err := NewQueue[uint8](QueueConfig{Size: 4, Name: "inbox", Registry: reg})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	NewShare[int32](ShareConfig{Name: "level", Registry: reg})

	dump := reg.ShowAll()
	lines := strings.Split(dump, "\n")
	if len(lines) != 2 {
		t.Fatalf("ShowAll produced %d lines, want 2:\n%s", len(lines), dump)
	}
	if !strings.Contains(lines[0], "inbox") || !strings.Contains(lines[0], "Queue<uint8>") {
		t.Errorf("first line = %q, want the inbox queue", lines[0])
	}
	if !strings.Contains(lines[1], "level") || !strings.Contains(lines[1], "Share<int32>") {
		t.Errorf("second line = %q, want the level share", lines[1])
	}
}

// TestRegistry_QueueStats verifies only queues contribute occupancy
// snapshots
func TestRegistry_QueueStats(t *testing.T) {
	reg := NewRegistry()

	q, err := NewQueue[int16](QueueConfig{Size: 8, Name: "samples", Registry: reg})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	NewShare[int16](ShareConfig{Name: "latest", Registry: reg})

	q.Put(1)
	q.Put(2)
	q.Put(3)
	q.Get()

	stats := reg.QueueStats()
	if len(stats) != 1 {
		t.Fatalf("QueueStats returned %d entries, want 1 (shares are skipped)", len(stats))
	}
	s := stats[0]
	if s.Name != "samples" || s.Capacity != 8 || s.Depth != 2 || s.MaxFull != 3 {
		t.Errorf("stats = %+v, want samples cap=8 depth=2 maxfull=3", s)
	}
	if s.Type != "int16" {
		t.Errorf("stats type = %q, want int16", s.Type)
	}
}

// TestRegistry_DefaultNames verifies serial-numbered fallback names
func TestRegistry_DefaultNames(t *testing.T) {
	q, err := NewQueue[uint8](QueueConfig{Size: 1})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	if !strings.HasPrefix(q.Name(), "Queue") {
		t.Errorf("default queue name = %q, want Queue prefix", q.Name())
	}

	s := NewShare[uint8](ShareConfig{})
	if !strings.HasPrefix(s.Name(), "Share") {
		t.Errorf("default share name = %q, want Share prefix", s.Name())
	}
}
