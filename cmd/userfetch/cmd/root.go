// Package cmd implements the userfetch command line interface.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// Define static errors
var (
	ErrUnsupportedLogLevel  = errors.New("unsupported log level")
	ErrUnsupportedLogFormat = errors.New("unsupported log format")
	ErrUnsupportedConfig    = errors.New("unsupported config file extension")
	ErrUsersAbsent          = errors.New("user service answered with a non-success status")
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the userfetch root command with its subcommands.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "userfetch",
		Short: "Fetch the users collection from a user service",
		Long: `userfetch resolves BASE_URL from a config file and the environment,
joins it with "users" and issues a single GET.

Configuration precedence, lowest first:
  --config file (YAML, TOML or JSON)
  environment (BASE_URL, USERFETCH_USER_AGENT, USERFETCH_VERBOSE)
  --base-url flag`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (.yaml, .yml, .toml or .json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(NewGetCommand(opts))
	return rootCmd
}

// newLogger builds the slog logger selected by the log flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLogLevel, level)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLogFormat, format)
	}
}
