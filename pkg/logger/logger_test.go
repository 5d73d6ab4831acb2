package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_JSONWithServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: DEBUG, Output: &buf, Service: "bookings"}).WithComponent("ledger")

	log.Debug("reserved", "count", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry[SERVICE] != "bookings" {
		t.Errorf("service = %v, want bookings", entry[SERVICE])
	}
	if entry[COMPONENT] != "ledger" {
		t.Errorf("component = %v, want ledger", entry[COMPONENT])
	}
	if entry["count"] != float64(2) {
		t.Errorf("count = %v, want 2", entry["count"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Output: &buf})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %s", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Errorf("warn should be written at warn level")
	}
}
