//go:build linux

package clip

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.design/x/clipboard"
)

type linuxBackend struct {
	count  atomic.Uint64
	cancel context.CancelFunc

	mu   sync.RWMutex
	last string
}

// New returns the Linux clipboard backend, or a headless no-op backend if
// the display environment is unavailable (e.g. a headless server without X11
// or Wayland). X11/Wayland expose no native change count, so a watch
// goroutine maintains one: it caches each observed text and bumps the
// counter, and ReadText serves the cache without touching the selection.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return &headlessBackend{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &linuxBackend{cancel: cancel}
	go b.watch(ctx)
	return b
}

func (b *linuxBackend) Name() string { return "Linux clipboard (watch)" }

func (b *linuxBackend) watch(ctx context.Context) {
	for data := range clipboard.Watch(ctx, clipboard.FmtText) {
		b.mu.Lock()
		b.last = string(data)
		b.mu.Unlock()
		b.count.Add(1)
	}
}

func (b *linuxBackend) ChangeCount() uint64 { return b.count.Load() }

func (b *linuxBackend) ReadText() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, nil
}

func (b *linuxBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	// The watch stream does not echo our own write back; account for it here
	// so ChangeCount stays truthful.
	b.mu.Lock()
	b.last = text
	b.mu.Unlock()
	b.count.Add(1)
	return nil
}

func (b *linuxBackend) Close() { b.cancel() }
