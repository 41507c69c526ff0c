package daemon

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"go.klb.dev/clipr/internal/protocol"
)

const writeDeadline = 5 * time.Second

// ServeListener accepts connections until the listener is closed and serves
// each on its own goroutine. Connections are independent: one slow client
// only ever delays its own replies.
func (d *Daemon) ServeListener(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			slog.Error("accept failed", "err", err)
			continue
		}
		go d.ServeConn(ctx, conn)
	}
}

// ServeConn handles one connection: a sequence of request lines, each
// answered with one JSON response line, in order.
func (d *Daemon) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), protocol.MaxLineSize)

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		resp := d.Dispatch(ctx, line)
		raw, err := resp.Encode()
		if err != nil {
			// Should not happen; the envelope is plain data.
			raw, _ = protocol.Fail(protocol.CodeIO, "encode: %v", err).Encode()
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if _, err := conn.Write(append(raw, '\n')); err != nil {
			slog.Debug("client write failed", "err", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Time{})
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("client read failed", "err", err)
	}
}
