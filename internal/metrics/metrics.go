// Package metrics holds the Prometheus instrumentation for the clipr daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles all daemon collectors. Served on /metrics by the HTTP side
// of the daemon listener.
type Metrics struct {
	Entries           prometheus.Gauge
	InsertsTotal      prometheus.Counter
	PromotionsTotal   prometheus.Counter
	DeletesTotal      prometheus.Counter
	RequestsTotal     *prometheus.CounterVec
	WatcherTicksTotal prometheus.Counter
	WatcherSkipsTotal prometheus.Counter
	CapturesTotal     prometheus.Counter
	SnapshotOpsTotal  *prometheus.CounterVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "clipr",
			Name:      "entries",
			Help:      "Number of live history entries",
		}),
		InsertsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clipr",
			Name:      "inserts_total",
			Help:      "New entries created",
		}),
		PromotionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clipr",
			Name:      "promotions_total",
			Help:      "Duplicate inserts and selects that promoted an existing entry",
		}),
		DeletesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clipr",
			Name:      "deletes_total",
			Help:      "Entries deleted",
		}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipr",
			Name:      "requests_total",
			Help:      "Protocol requests handled, by verb and status",
		}, []string{"verb", "status"}),
		WatcherTicksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clipr",
			Subsystem: "watcher",
			Name:      "ticks_total",
			Help:      "Watcher poll ticks",
		}),
		WatcherSkipsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clipr",
			Subsystem: "watcher",
			Name:      "skips_total",
			Help:      "Ticks skipped because the change counter was unchanged",
		}),
		CapturesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clipr",
			Subsystem: "watcher",
			Name:      "captures_total",
			Help:      "Clipboard changes forwarded into the history",
		}),
		SnapshotOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipr",
			Subsystem: "snapshot",
			Name:      "ops_total",
			Help:      "Snapshot operations, by op and status",
		}, []string{"op", "status"}),
	}
}
