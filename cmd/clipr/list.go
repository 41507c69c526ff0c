package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List history entries, most recent first",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runList(cmd, v) },
	}

	f := cmd.Flags()
	f.Int("offset", 0, "skip this many entries")
	f.Int("limit", 0, "maximum entries to return (0 = all)")
	f.Int("preview", 64, "preview length in characters (0 = full first line)")
	f.String("tag", "", "only entries carrying this tag")
	f.Bool("json", false, "output raw JSON")
	addServerFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, v *viper.Viper) error {
	args := []string{
		strconv.Itoa(v.GetInt("offset")),
		strconv.Itoa(v.GetInt("limit")),
		strconv.Itoa(v.GetInt("preview")),
	}
	if tag := v.GetString("tag"); tag != "" {
		args = append(args, tag)
	}
	resp, err := roundTrip(cmd, v, "list", args...)
	if err != nil {
		return err
	}
	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp.Rows, "", "  ")
		fmt.Println(string(enc))
		return nil
	}
	renderRows(resp.Rows)
	return nil
}

func newCountCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "count",
		Short:   "Print the number of history entries",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := roundTrip(cmd, v, "count")
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

func newTagsCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "tags",
		Short:   "List all tags in use",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := roundTrip(cmd, v, "tags")
			if err != nil {
				return err
			}
			for _, t := range resp.Tags {
				fmt.Println(t)
			}
			return nil
		},
	}
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newSelectCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "select {tag|value} <needle>",
		Short: "Select entries by tag or content substring",
		Example: `  clipr select tag work
  clipr select value 'TODO:'`,
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(cmd, v, "select", "--", args[0], args[1])
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				enc, _ := json.MarshalIndent(resp.Rows, "", "  ")
				fmt.Println(string(enc))
				return nil
			}
			renderRows(resp.Rows)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output raw JSON")
	addServerFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}
