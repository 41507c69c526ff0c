package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTagCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "tag <id> <tag>",
		Short:   "Add a tag to an entry",
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := roundTrip(cmd, v, "tag", args[0], args[1])
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newUntagCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "untag <id> <tag>",
		Short:   "Remove a tag from an entry",
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := roundTrip(cmd, v, "untag", args[0], args[1])
			return err
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}
