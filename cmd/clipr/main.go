// clipr: clipboard history daemon and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipr/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipr",
		Short: "Clipboard history daemon and CLI",
		Long: `clipr records a history of everything copied to the system clipboard and
lets you retrieve, tag, and re-copy past entries.

Run "clipr daemon" once per machine. The other sub-commands talk to the
daemon over its local Unix socket, falling back to the configured TCP
address when the socket is absent.

Config file search order (first found wins):
  /etc/clipr/clipr.toml
  $HOME/.config/clipr/clipr.toml
  path supplied via --config

All flags can be set via CLIPR_<FLAG> env vars or config-file keys.
See "clipr daemon --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newGetCmd(),
		newSetCmd(),
		newDelCmd(),
		newTagCmd(),
		newUntagCmd(),
		newTagsCmd(),
		newSelectCmd(),
		newInsertCmd(),
		newAddCmd(),
		newCountCmd(),
		newSaveCmd(),
		newLoadCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipr %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
