package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LogLevelInfo, Format: "json", Output: &buf, Component: "gateway"})

	l.Debug("hidden")
	l.Info("request finished", "vendor", "openai")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request finished", entry["msg"])
	assert.Equal(t, "gateway", entry["component"])
	assert.Equal(t, "openai", entry["vendor"])
}

func TestWith_AttachesArgs(t *testing.T) {
	var buf bytes.Buffer
	l := With(New(Config{Format: "text", Output: &buf}), "request_id", "r-1")
	l.Warn("slow upstream")

	assert.Contains(t, buf.String(), "request_id=r-1")
	assert.Contains(t, buf.String(), "slow upstream")
}

func TestTintFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "tint", Output: &buf})
	l.Error("boom", "kind", "unknown")
	assert.Contains(t, buf.String(), "boom")
}

func TestOrNoOp(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, OrNoOp(nil))
	noop := NoOpLogger{}
	assert.Equal(t, noop, With(noop, "k", "v"))
}
