package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestWriteEncodesFieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Warn("llm.retry", map[string]any{"stage": "match", "error": errors.New("boom"), "level": "ignored"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "llm.retry" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["error"] != "boom" || entry["stage"] != "match" {
		t.Fatalf("expected fields to be kept, got %v", entry)
	}
}

func TestSetLevelDropsLowerLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(LevelInfo)
	})

	Info("dropped", nil)
	Error("kept", nil)

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelInfo, "WARNING": LevelWarn, "error": LevelError, "debug": LevelInfo} {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if WithRequestID(ctx, "") != ctx {
		t.Fatalf("empty id should not wrap the context")
	}
	if got := RequestID(WithRequestID(ctx, "req-9")); got != "req-9" {
		t.Fatalf("expected req-9, got %q", got)
	}
	if RequestID(nil) != "" {
		t.Fatalf("nil context should have no id")
	}
}
