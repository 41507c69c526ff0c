//go:build windows

package clip

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.design/x/clipboard"
)

type windowsBackend struct {
	count  atomic.Uint64
	cancel context.CancelFunc

	mu   sync.RWMutex
	last string
}

// New returns the Windows clipboard backend. Same shape as the Linux one:
// a watch goroutine maintains the change counter and the last-seen text.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return &headlessBackend{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &windowsBackend{cancel: cancel}
	go b.watch(ctx)
	return b
}

func (b *windowsBackend) Name() string { return "Windows clipboard" }

func (b *windowsBackend) watch(ctx context.Context) {
	for data := range clipboard.Watch(ctx, clipboard.FmtText) {
		b.mu.Lock()
		b.last = string(data)
		b.mu.Unlock()
		b.count.Add(1)
	}
}

func (b *windowsBackend) ChangeCount() uint64 { return b.count.Load() }

func (b *windowsBackend) ReadText() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, nil
}

func (b *windowsBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	b.mu.Lock()
	b.last = text
	b.mu.Unlock()
	b.count.Add(1)
	return nil
}

func (b *windowsBackend) Close() { b.cancel() }
