package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNew_ProductionDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.Info("server started", "port", "4000")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"msg":"server started"`)
	assert.Contains(t, out, `"port":"4000"`)
}

func TestWithError_AddsErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.WithError(assert.AnError).Error("bootstrap failed")

	out := buf.String()
	assert.Contains(t, out, `"msg":"bootstrap failed"`)
	assert.Contains(t, out, `"error":"`+assert.AnError.Error()+`"`)
}

func TestPrettyHandler_IncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	log.With("request_id", "req-1").Warn("slow subscriber", "dropped", 3)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "slow subscriber")
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "dropped=3")
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	log.Info("hidden")
	log.Error("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
