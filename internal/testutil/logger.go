// Package testutil holds shared helpers for package tests.
package testutil

import (
	"bytes"
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level slog logger routed through
// tb.Log, so log output surfaces only on test failure or under -v.
func NewTestLogger(tb testing.TB) *slog.Logger {
	tb.Helper()
	h := slog.NewTextHandler(&tbWriter{tb: tb}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h)
}

// tbWriter adapts testing.TB to io.Writer, trimming the trailing
// newline slog emits so entries do not double-space in test output.
type tbWriter struct {
	tb testing.TB
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(bytes.TrimSuffix(p, []byte("\n"))))
	return len(p), nil
}
