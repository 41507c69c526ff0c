package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipr/internal/ipc"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon reachability and history size",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(cmd, v) },
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func runStatus(cmd *cobra.Command, v *viper.Viper) error {
	conn, err := dialDaemon(cmd, v)
	if err != nil {
		return err
	}
	defer conn.Close()

	transport := fmt.Sprintf("tcp (%s)", v.GetString("server"))
	if conn.RemoteAddr().Network() == "unix" {
		transport = fmt.Sprintf("ipc (%s)", ipc.SocketPath())
	}

	count, err := exchange(conn, "count")
	if err != nil {
		return err
	}
	tags, err := exchange(conn, "tags")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Transport:\t%s\n", transport)
	fmt.Fprintf(w, "Entries:\t%s\n", count.Value)
	if len(tags.Tags) == 0 {
		fmt.Fprintf(w, "Tags:\t-\n")
	} else {
		fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(tags.Tags, ", "))
	}
	return w.Flush()
}
