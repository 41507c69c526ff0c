package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newGetCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "get <id>",
		Short:   "Print an entry's full content to stdout",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(cmd, v, "get", args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(os.Stdout, resp.Value)
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newSetCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "set <id>",
		Short:   "Promote an entry and copy it to the system clipboard",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := roundTrip(cmd, v, "set", args[0])
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newDelCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "del <id>",
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := roundTrip(cmd, v, "del", args[0])
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newInsertCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "insert <path>",
		Short: "Insert a file's contents into the history",
		Long: `Inserts the contents of a file as a history entry. The file is read by
the daemon, so the path must be readable from the daemon's host.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			resp, err := roundTrip(cmd, v, "insert", path)
			if err != nil {
				return err
			}
			fmt.Println(resp.Value)
			return nil
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newAddCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "add [text...]",
		Short: "Place text on the system clipboard (like pbcopy)",
		Long: `Places text on the system clipboard, where the daemon's watcher captures
it into the history. With no arguments, reads stdin.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			if text == "" {
				return nil
			}
			_, err := roundTrip(cmd, v, "add", text)
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}
