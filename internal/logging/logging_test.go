package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level string) (*slog.Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	lvl := new(slog.LevelVar)
	lvl.Set(parseLevel(level))
	return slog.New(newPrettyHandler(buf, lvl, false)), buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"":         slog.LevelInfo,
		"WARN":     slog.LevelWarn,
		"error":    slog.LevelError,
		"fatal":    slog.LevelError,
		"nonsense": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestPrettyHandlerPromotesComponent(t *testing.T) {
	logger, buf := newBufferLogger("info")
	NewComponentLogger(logger, "scheduler").Info("session started",
		String(FieldSessionID, "abc"))

	line := buf.String()
	if !strings.Contains(line, "INFO scheduler: session started") {
		t.Fatalf("component not promoted into prefix: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as a field: %q", line)
	}
	if !strings.Contains(line, "session_id=abc") {
		t.Fatalf("missing session_id field: %q", line)
	}
}

func TestPrettyHandlerQuotesValues(t *testing.T) {
	logger, buf := newBufferLogger("info")
	logger.Info("probe", String("path", "/tmp/scene dir/a.hac"))
	if !strings.Contains(buf.String(), `path="/tmp/scene dir/a.hac"`) {
		t.Fatalf("value with spaces not quoted: %q", buf.String())
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	logger, buf := newBufferLogger("warn")
	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info line emitted at warn level: %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestErrorAttr(t *testing.T) {
	attr := Error(errors.New("boom"))
	if attr.Key != "error" {
		t.Fatalf("key = %q", attr.Key)
	}
	if got := Error(nil); got.Value.String() != "<nil>" {
		t.Fatalf("nil error value = %q", got.Value.String())
	}
}

func TestHasAttrKey(t *testing.T) {
	attrs := []Attr{String("a", "1"), Int("b", 2)}
	if !HasAttrKey(attrs, "b") {
		t.Error("expected to find key b")
	}
	if HasAttrKey(attrs, "c") {
		t.Error("unexpected key c")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logger, buf := newBufferLogger("info")
	WarnWithContext(logger, "cache sweep partial", "cache_sweep")

	line := buf.String()
	for _, field := range []string{"event_type=cache_sweep", "error_hint=", "impact="} {
		if !strings.Contains(line, field) {
			t.Errorf("missing %s in %q", field, line)
		}
	}
}

func TestWarnWithContextKeepsExplicitFields(t *testing.T) {
	logger, buf := newBufferLogger("info")
	WarnWithContext(logger, "device gone", "hotplug",
		String(FieldImpact, "playback stopped"))
	if !strings.Contains(buf.String(), `impact="playback stopped"`) {
		t.Fatalf("explicit impact overridden: %q", buf.String())
	}
}

func TestErrorWithContextNilLogger(t *testing.T) {
	// must not panic
	ErrorWithContext(nil, "ignored", "noop")
	WarnWithContext(nil, "ignored", "noop")
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "pool")
	logger.Info("discarded")
}
