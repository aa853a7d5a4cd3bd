package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedWatcher_AppliesAfterWrite(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte("[]"), 0o644))

	var applied atomic.Int32
	w, err := New(seedPath, func(context.Context, string) error {
		applied.Add(1)
		return nil
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(seedPath, []byte(`[{"id":"bk-1"}]`), 0o644))

	require.Eventually(t, func() bool {
		return applied.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSeedWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte("[]"), 0o644))

	var applied atomic.Int32
	w, err := New(seedPath, func(context.Context, string) error {
		applied.Add(1)
		return nil
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))

	assert.Never(t, func() bool {
		return applied.Load() > 0
	}, time.Second, 50*time.Millisecond)
}

func TestSeedWatcher_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")

	w, err := New(seedPath, func(context.Context, string) error { return nil }, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New("/does/not/exist/seed.json", func(context.Context, string) error { return nil }, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
