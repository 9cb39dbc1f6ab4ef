package utils

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(10)
	for i := 1; i <= 5; i++ {
		tracker.Observe(time.Duration(i*10) * time.Millisecond)
	}
	if tracker.Count() != 5 {
		t.Fatalf("expected 5 samples, got %d", tracker.Count())
	}
	if p95 := tracker.Percentile(95); p95 < 40*time.Millisecond {
		t.Fatalf("expected p95 >= 40ms, got %v", p95)
	}
	if tracker.Percentile(0) != 10*time.Millisecond || tracker.Percentile(100) != 50*time.Millisecond {
		t.Fatalf("unexpected extremes")
	}
}

func TestLatencyTrackerRingOverwritesOldest(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 0; i < 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if tracker.Count() != 3 || tracker.Total() != 10 {
		t.Fatalf("unexpected sizes: count=%d total=%d", tracker.Count(), tracker.Total())
	}
	if tracker.Percentile(0) != 7*time.Millisecond {
		t.Fatalf("expected oldest retained sample 7ms, got %v", tracker.Percentile(0))
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	if NewLatencyTracker(0).Percentile(50) != 0 {
		t.Fatalf("expected zero percentile on empty tracker")
	}
}

func TestInvalid(t *testing.T) {
	cause := errors.New("bug must be positive")
	err := Invalid("analyze", cause)
	if !IsInvalid(err) {
		t.Fatalf("expected invalid argument error")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause dropped from the error chain: %v", err)
	}
	if !strings.Contains(err.Error(), "bug must be positive") {
		t.Fatalf("message lost: %v", err)
	}
	if Invalid("analyze", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
	if IsInvalid(NewAppError("analyze", "backend down", errors.New("timeout"))) {
		t.Fatalf("internal failure reported as invalid")
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "debug", "json", false).Debug("hello", slog.Int("n", 1))
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}

	buf.Reset()
	NewLoggerTo(&buf, "warn", "", false).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %q", buf.String())
	}

	buf.Reset()
	NewLoggerTo(&buf, "info", "auto", false).Info("piped")
	if !strings.Contains(buf.String(), `"msg":"piped"`) {
		t.Fatalf("auto should pick json for non-terminal writers, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"DEBUG": slog.LevelDebug, "warning": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "loud": slog.LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 2, 10, 11, 12, 0, time.UTC)
	for _, in := range []string{"2024-03-02 10:11:12", "2024-03-02T10:11:12Z", "2024-03-02T11:11:12+01:00", "2024-03-02T10:11:12"} {
		got, err := ParseTimestamp(in)
		if err != nil || !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseTimestamp(""); err == nil {
		t.Fatalf("expected error for empty value")
	}
}
