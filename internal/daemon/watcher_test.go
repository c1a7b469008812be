package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/herbario-cl/herbario/internal/manifest"
)

func TestWatcherTriggersOnManifestChange(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "a.txt")
	untracked := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(tracked, []byte("one"), 0644))
	require.NoError(t, os.WriteFile(untracked, []byte("x"), 0644))

	changed := make(chan struct{}, 4)
	w, err := NewWatcher(manifest.New([]string{tracked}), func() { changed <- struct{}{} })
	require.NoError(t, err)
	w.debounceTime = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	// A change to an untracked sibling must not fire.
	require.NoError(t, os.WriteFile(untracked, []byte("y"), 0644))
	select {
	case <-changed:
		t.Fatal("untracked file change must not trigger rebuild")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(tracked, []byte("two"), 0644))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("tracked file change did not trigger rebuild")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(tracked, []byte("one"), 0644))

	changed := make(chan struct{}, 16)
	w, err := NewWatcher(manifest.New([]string{tracked}), func() { changed <- struct{}{} })
	require.NoError(t, err)
	w.debounceTime = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(tracked, []byte{byte('a' + i)}, 0644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("burst did not trigger rebuild")
	}

	// The burst should have collapsed into few callbacks, not one per write.
	time.Sleep(200 * time.Millisecond)
	extra := len(changed)
	if extra > 2 {
		t.Fatalf("expected coalesced rebuilds, got %d extra callbacks", extra)
	}
}

func TestPublisherNilIsSafe(t *testing.T) {
	var p *Publisher
	p.Publish(Event{Type: "archive"})
	p.Close()
}
