package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipr/internal/ipc"
	"go.klb.dev/clipr/internal/protocol"
)

const dialTimeout = 5 * time.Second

// dialDaemon connects to a running daemon: the local Unix socket when one is
// listening and --server was not given explicitly, the TCP address otherwise.
func dialDaemon(cmd *cobra.Command, v *viper.Viper) (net.Conn, error) {
	if !cmd.Flags().Changed("server") && ipc.IsRunning() {
		if conn, err := ipc.Dial(); err == nil {
			return conn, nil
		}
	}
	addr := v.GetString("server")
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w (is the daemon running?)", addr, err)
	}
	return conn, nil
}

// roundTrip sends one request line and decodes the one-line JSON reply.
// A protocol-level error response is returned as a Go error.
func roundTrip(cmd *cobra.Command, v *viper.Viper, verb string, args ...string) (protocol.Response, error) {
	conn, err := dialDaemon(cmd, v)
	if err != nil {
		return protocol.Response{}, err
	}
	defer conn.Close()
	return exchange(conn, verb, args...)
}

// exchange performs one request/response pair on an open connection.
func exchange(conn net.Conn, verb string, args ...string) (protocol.Response, error) {
	line := protocol.FormatLine(verb, args...)
	if strings.ContainsRune(line, '\n') {
		return protocol.Response{}, fmt.Errorf("arguments may not contain newlines (use \"insert <path>\")")
	}
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return protocol.Response{}, fmt.Errorf("send: %w", err)
	}

	br := bufio.NewReaderSize(conn, 64*1024)
	raw, err := br.ReadBytes('\n')
	if err != nil {
		return protocol.Response{}, fmt.Errorf("recv: %w", err)
	}
	resp, err := protocol.DecodeResponse(raw[:len(raw)-1])
	if err != nil {
		return protocol.Response{}, err
	}
	if err := resp.Err(); err != nil {
		return protocol.Response{}, err
	}
	return resp, nil
}

// renderRows prints a multi-row result as a table.
func renderRows(rows []protocol.Row) {
	if len(rows) == 0 {
		fmt.Println("No entries.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "POS\tID\tPREVIEW\tTAGS\tCOPIED\n")
	for _, r := range rows {
		tags := r.Tags
		if tags == "" {
			tags = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			r.Position, r.ID, r.Preview, tags, fmtAge(r.CreatedAt))
	}
	_ = tw.Flush()
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return t.Format("15:04:05")
	}
	return t.Format("2006-01-02")
}
