package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipr/internal/logging"
)

// defaultAddr is the daemon's TCP listen address and the clients' default
// fallback target.
const defaultAddr = "127.0.0.1:8931"

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPR_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPR_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipr")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipr/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipr", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPR")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addServerFlag adds the TCP fallback target used by client sub-commands.
func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().String("server", defaultAddr, "daemon address (used if no local socket)")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
}

// defaultSnapshotPath places the history snapshot under the user's data dir.
func defaultSnapshotPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "clipr-history.jsonl"
	}
	return filepath.Join(home, ".local", "share", "clipr", "history.jsonl")
}
