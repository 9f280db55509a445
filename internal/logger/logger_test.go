package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabledDiscards(t *testing.T) {
	var out bytes.Buffer
	l := New(Options{Enabled: false, Writer: &out})
	l.Error("dropped")
	assert.Zero(t, out.Len())
}

func TestNewTextRespectsLevel(t *testing.T) {
	var out bytes.Buffer
	l := New(Options{Enabled: true, Writer: &out, Level: slog.LevelWarn})
	l.Info("hidden")
	l.Warn("shown", "units", 4096)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
	assert.Contains(t, out.String(), "units=4096")
}

func TestNewJSON(t *testing.T) {
	var out bytes.Buffer
	l := New(Options{Enabled: true, JSON: true, Writer: &out})
	l.Info("grow", "units", 8)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "grow", rec["msg"])
	assert.EqualValues(t, 8, rec["units"])
}

func TestInitReplacesGlobal(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	var out bytes.Buffer
	Init(Options{Enabled: true, Writer: &out})
	Info("hello")
	assert.Contains(t, out.String(), "hello")
}
