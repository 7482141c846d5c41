package db

import (
	"encoding/json"
	"testing"
)

func TestPoolStats_WireKeys(t *testing.T) {
	stats := &PoolStats{
		TotalConns:      10,
		IdleConns:       5,
		AcquiredConns:   5,
		MaxConns:        20,
		AcquireCount:    100,
		AcquireDuration: "1.5s",
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal pool stats: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal pool stats: %v", err)
	}

	for _, key := range []string{
		"total_conns", "idle_conns", "acquired_conns",
		"max_conns", "acquire_count", "acquire_duration",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in health payload", key)
		}
	}

	if m["total_conns"].(float64) != 10 {
		t.Errorf("expected total_conns 10, got %v", m["total_conns"])
	}
	if m["acquire_duration"] != "1.5s" {
		t.Errorf("expected acquire_duration 1.5s, got %v", m["acquire_duration"])
	}
}
