package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soheilhy/cmux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipr/internal/clip"
	"go.klb.dev/clipr/internal/daemon"
	"go.klb.dev/clipr/internal/ipc"
	"go.klb.dev/clipr/internal/metrics"
	"go.klb.dev/clipr/internal/watcher"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipr daemon: records clipboard changes, serves the history
over a local Unix socket and a TCP listener, and snapshots it to disk on
shutdown.

The TCP listener answers both the line protocol and plain HTTP on the same
port; GET /healthz and GET /metrics (Prometheus) are served there.

Config file search order:
  /etc/clipr/clipr.toml
  $HOME/.config/clipr/clipr.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPR_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDaemon(v) },
	}

	f := cmd.Flags()
	f.String("addr", defaultAddr, "TCP listen address")
	f.Duration("poll-interval", 500*time.Millisecond, "clipboard poll interval")
	f.String("db", defaultSnapshotPath(), "history snapshot path")
	f.Bool("no-watch", false, "disable clipboard watching (serve history only)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(v *viper.Viper) error {
	setupLogging(v)

	addr := v.GetString("addr")
	pollInterval := v.GetDuration("poll-interval")
	dbPath := v.GetString("db")
	noWatch := v.GetBool("no-watch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("clipr daemon starting",
		"version", Version,
		"addr", addr,
		"db", dbPath,
		"watch", !noWatch,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	backend := clip.New()
	defer backend.Close()

	d := daemon.New(daemon.Options{
		SnapshotPath: dbPath,
		Backend:      backend,
		Metrics:      m,
	})
	if err := d.RestoreOnStart(); err != nil {
		slog.Warn("snapshot restore failed, starting empty", "path", dbPath, "err", err)
	}

	w := watcher.New(backend, d, pollInterval, m)
	d.OnClipboardWrite(w.MarkOwnWrite)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Run(ctx)
	}()
	if !noWatch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	// Unix socket for local CLI clients.
	ipcLn, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		go d.ServeListener(ctx, ipcLn)
	}

	// Binding the TCP endpoint is the only fatal startup condition.
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		stop()
		wg.Wait()
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	slog.Info("listening", "addr", ln.Addr())

	// One port, two protocols: HTTP (healthz, metrics) and the line protocol.
	mux := cmux.New(ln)
	httpLn := mux.Match(cmux.HTTP1Fast())
	lineLn := mux.Match(cmux.Any())

	go serveHTTP(httpLn, reg)
	go d.ServeListener(ctx, lineLn)

	go func() {
		<-ctx.Done()
		ln.Close()
		if ipcLn != nil {
			ipcLn.Close()
		}
	}()

	if err := mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("mux serve ended", "err", err)
	}

	// The owner saves the snapshot on its way out.
	wg.Wait()
	slog.Info("clipr daemon stopped")
	return nil
}

// serveHTTP runs an HTTP/1.1 server on ln with the health and metrics endpoints.
func serveHTTP(ln net.Listener, reg *prometheus.Registry) {
	hmux := http.NewServeMux()
	hmux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	hmux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: hmux}
	_ = srv.Serve(ln)
}
