package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Format: "json", Output: &buf})
	l.Named("server").Debug("request", "status", 200)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["@message"] != "request" {
		t.Fatalf("unexpected message: %v", entry["@message"])
	}
	if entry["@module"] != "vidsub.server" {
		t.Fatalf("unexpected module: %v", entry["@module"])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Output: &buf})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "loud", Output: &buf})
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestLogf(t *testing.T) {
	var buf bytes.Buffer
	logf := Logf(New(Options{Output: &buf}), "session", "abc")
	logf("transcribed %d segments", 3)
	out := buf.String()
	if !strings.Contains(out, "transcribed 3 segments") || !strings.Contains(out, "session=abc") {
		t.Fatalf("unexpected output: %q", out)
	}
}
