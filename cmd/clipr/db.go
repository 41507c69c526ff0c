package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSaveCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "save",
		Short:   "Snapshot the history to disk",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := roundTrip(cmd, v, "save")
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newLoadCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Replace the history from the on-disk snapshot",
		Long: `Replaces the daemon's in-memory history with the on-disk snapshot.
If the snapshot is missing or corrupt the in-memory history is left
untouched and an error is reported.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := roundTrip(cmd, v, "load")
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}
