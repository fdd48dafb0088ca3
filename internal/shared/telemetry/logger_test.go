package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("analysis.complete", map[string]any{"report_id": "r-1", "clauses": 3})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if payload["message"] != "analysis.complete" {
		t.Fatalf("unexpected message: %v", payload["message"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["report_id"] != "r-1" {
		t.Fatalf("missing field report_id: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts field: %v", payload)
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	SetLevel("warn")
	defer SetLevel("info")

	Debug("hidden", nil)
	Info("hidden", nil)
	Warn("shown", map[string]any{"stage": "score"})

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected warn line, got %q", out)
	}
}
