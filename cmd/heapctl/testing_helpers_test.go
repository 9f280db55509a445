package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTrace writes src to a temp file and returns its path.
func writeTrace(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.trace")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

// runHeapctl executes the root command with args and returns captured stdout.
// Flag values are reset to their defaults first.
func runHeapctl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg = defaultConfig()
	rootCmd.SetArgs(args)
	return captureOutput(t, rootCmd.Execute)
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()

	return string(out), fnErr
}
