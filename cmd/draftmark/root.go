package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftmark/draftmark/internal/config"
)

// Version information (set via ldflags during build).
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "draftmark",
	Short: "Draft editing engine with protected citation markers",
	Long: `Draftmark maintains generated drafts that interleave editable prose
with immutable citation markers. This CLI runs the draft-store dev
server and provides sanitizer and draft inspection utilities.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("draftmark version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (TOML)")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configured file plus environment overrides.
func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
