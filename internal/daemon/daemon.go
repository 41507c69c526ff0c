// Package daemon implements the clipr daemon core: one owner goroutine holds
// the history store and executes every operation — reads included — one at a
// time. The watcher and every client connection are producers that send a
// request and await the matching reply; none of them touch the store
// directly. This gives a total order over all store activity, so a save can
// never observe a half-applied mutation and the list and tag index are
// always mutually consistent at every point a client can query them.
package daemon

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go.klb.dev/clipr/internal/clip"
	"go.klb.dev/clipr/internal/history"
	"go.klb.dev/clipr/internal/metrics"
	"go.klb.dev/clipr/internal/protocol"
	"go.klb.dev/clipr/internal/snapshot"
)

// enqueueTimeout bounds how long a producer waits for a slot in the mailbox
// before the request is reported as unavailable.
const enqueueTimeout = 5 * time.Second

// Options configures a Daemon.
type Options struct {
	// SnapshotPath is the persistence file. Empty disables save/load.
	SnapshotPath string
	// Backend receives copy-out writes from set/add. May be nil.
	Backend clip.Backend
	// Metrics is created on a private registry when nil.
	Metrics *metrics.Metrics
	// QueueSize is the mailbox capacity (default 64).
	QueueSize int
}

type request struct {
	fn    func() protocol.Response
	reply chan protocol.Response
}

// Daemon owns the store and serializes all access to it.
type Daemon struct {
	opts  Options
	store *history.Store // owner goroutine only after Run starts
	reqs  chan request
	done  chan struct{}
	m     *metrics.Metrics

	// ownWrite is notified before every clipboard write performed on the
	// store's behalf, so the watcher can tell copy-out residue from a real
	// clipboard change.
	ownWrite func(text string)
}

// New returns a Daemon with an empty store.
func New(opts Options) *Daemon {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Daemon{
		opts:  opts,
		store: history.New(),
		reqs:  make(chan request, opts.QueueSize),
		done:  make(chan struct{}),
		m:     m,
	}
}

// OnClipboardWrite registers the watcher's own-write suppression hook.
// Must be called before Run.
func (d *Daemon) OnClipboardWrite(fn func(text string)) { d.ownWrite = fn }

// RestoreOnStart loads an existing snapshot into the store. Call before Run,
// while the Daemon is still single-threaded. A missing file is not an error;
// any other failure leaves the store empty and is returned for logging.
func (d *Daemon) RestoreOnStart() error {
	if d.opts.SnapshotPath == "" {
		return nil
	}
	st, err := snapshot.Load(d.opts.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	d.store = st
	d.m.Entries.Set(float64(st.Len()))
	slog.Info("history restored", "path", d.opts.SnapshotPath, "entries", st.Len())
	return nil
}

// Run executes requests until ctx is canceled, then saves the store and
// returns. Requests still queued when the owner exits are reported as
// unavailable to their producers via the closed done channel.
func (d *Daemon) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.saveOnShutdown()
			return
		case req := <-d.reqs:
			// reply is buffered; a producer that has gone away never
			// blocks the owner.
			req.reply <- req.fn()
		}
	}
}

func (d *Daemon) saveOnShutdown() {
	if d.opts.SnapshotPath == "" {
		return
	}
	if err := snapshot.Save(d.opts.SnapshotPath, d.store); err != nil {
		d.m.SnapshotOpsTotal.WithLabelValues("save", "error").Inc()
		slog.Error("shutdown save failed", "path", d.opts.SnapshotPath, "err", err)
		return
	}
	d.m.SnapshotOpsTotal.WithLabelValues("save", "ok").Inc()
	slog.Info("history saved", "path", d.opts.SnapshotPath, "entries", d.store.Len())
}

// do funnels fn through the owner. Mutations are applied-once: after the
// owner accepts the request, cancellation only discards reply delivery.
func (d *Daemon) do(ctx context.Context, fn func() protocol.Response) protocol.Response {
	req := request{fn: fn, reply: make(chan protocol.Response, 1)}

	t := time.NewTimer(enqueueTimeout)
	defer t.Stop()
	select {
	case d.reqs <- req:
	case <-d.done:
		return protocol.Fail(protocol.CodeUnavailable, "daemon is shutting down")
	case <-ctx.Done():
		return protocol.Fail(protocol.CodeUnavailable, "request not accepted: %v", ctx.Err())
	case <-t.C:
		return protocol.Fail(protocol.CodeUnavailable, "daemon mailbox saturated")
	}

	select {
	case resp := <-req.reply:
		return resp
	case <-d.done:
		return protocol.Fail(protocol.CodeUnavailable, "daemon is shutting down")
	case <-ctx.Done():
		return protocol.Fail(protocol.CodeUnavailable, "abandoned awaiting reply: %v", ctx.Err())
	}
}

// Capture inserts content observed on the system clipboard. This is the
// watcher's entry point into the store.
func (d *Daemon) Capture(ctx context.Context, content string) error {
	resp := d.do(ctx, func() protocol.Response {
		id, created := d.insertLocked(content)
		slog.Debug("clipboard captured", "id", id, "new", created, "bytes", len(content))
		return protocol.OK()
	})
	return resp.Err()
}

// insertLocked runs on the owner goroutine.
func (d *Daemon) insertLocked(content string) (uint64, bool) {
	id, created := d.store.Insert(content)
	if created {
		d.m.InsertsTotal.Inc()
	} else {
		d.m.PromotionsTotal.Inc()
	}
	d.m.Entries.Set(float64(d.store.Len()))
	return id, created
}

// copyOut places content on the system clipboard after marking it as our own
// write, so the watcher does not re-insert it.
func (d *Daemon) copyOut(content string) {
	if d.opts.Backend == nil {
		return
	}
	if d.ownWrite != nil {
		d.ownWrite(content)
	}
	if err := d.opts.Backend.WriteText(content); err != nil {
		slog.Error("clipboard write failed", "err", err)
	}
}
