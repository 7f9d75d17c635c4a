package vmheap

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmheap/heap"
)

func newTestContext(t testing.TB, cfg heap.Config, opts ...Option) *Context {
	t.Helper()
	if cfg.MaxHeapBytes == 0 {
		cfg.MaxHeapBytes = 1 << 20
	}
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	return c
}

// captureLogger returns a logger writing text records into the returned buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
