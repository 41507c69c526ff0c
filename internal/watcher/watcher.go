// Package watcher feeds system clipboard changes into the daemon. It polls
// the backend's change counter on a fixed interval; a tick with an unchanged
// counter performs no clipboard read and no allocation at all.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go.klb.dev/clipr/internal/clip"
	"go.klb.dev/clipr/internal/metrics"
)

// Sink receives captured clipboard content. The daemon implements it.
type Sink interface {
	Capture(ctx context.Context, content string) error
}

// Watcher polls a clipboard backend and forwards new content to a Sink.
type Watcher struct {
	backend  clip.Backend
	sink     Sink
	interval time.Duration
	m        *metrics.Metrics

	lastCount uint64

	mu       sync.Mutex
	ownWrite string
	hasOwn   bool
}

// New creates a Watcher. interval is its only blocking point.
func New(backend clip.Backend, sink Sink, interval time.Duration, m *metrics.Metrics) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Watcher{
		backend:  backend,
		sink:     sink,
		interval: interval,
		m:        m,
	}
}

// MarkOwnWrite records content the daemon is about to place on the system
// clipboard, so the resulting change is not fed back into the history.
func (w *Watcher) MarkOwnWrite(text string) {
	w.mu.Lock()
	w.ownWrite = text
	w.hasOwn = true
	w.mu.Unlock()
}

// Run polls until ctx is canceled. Clipboard failures are logged and the
// tick skipped; they never terminate the daemon.
func (w *Watcher) Run(ctx context.Context) {
	slog.Info("watcher started", "backend", w.backend.Name(), "interval", w.interval)
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick performs one poll. Exported so tests can drive the watcher without
// real time.
func (w *Watcher) Tick(ctx context.Context) {
	w.m.WatcherTicksTotal.Inc()

	cc := w.backend.ChangeCount()
	if cc == w.lastCount {
		w.m.WatcherSkipsTotal.Inc()
		return
	}
	w.lastCount = cc

	text, err := w.backend.ReadText()
	if err != nil {
		slog.Warn("clipboard read failed", "err", err)
		return
	}
	// Empty also covers a clear racing the counter observation.
	if text == "" {
		return
	}
	if w.consumeOwnWrite(text) {
		return
	}
	if err := w.sink.Capture(ctx, text); err != nil {
		slog.Warn("capture rejected", "err", err)
		return
	}
	w.m.CapturesTotal.Inc()
}

func (w *Watcher) consumeOwnWrite(text string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.hasOwn && text == w.ownWrite {
		w.hasOwn = false
		w.ownWrite = ""
		return true
	}
	return false
}
