package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitalvas/signfetch/config"
)

// Version information, set from main.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// SetVersion sets the version information reported by the version command.
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// options holds the global flags shared by all subcommands.
type options struct {
	configPath string
	logLevel   string
}

// loadConfig loads the configuration named by --config and applies
// --log-level on top of it.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = strings.ToLower(o.logLevel)
	}

	return cfg, nil
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "signfetch",
		Short: "signfetch - signed HTTP requests",
		Long: `signfetch signs HTTP request parameters with the h_token/h_signature
header contract, sends signed requests, and runs a verifying server for
local testing.

Configuration is read from a YAML file (--config) and SIGNFETCH_* environment
variables. Credentials may reference the system keychain as keyring:<name>.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		newSignCommand(),
		newVerifyCommand(),
		newRequestCommand(opts),
		newServeCommand(opts),
		newSecretCommand(),
		newVersionCommand(),
	)

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "signfetch %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}

// readInput returns arg, or stdin when arg is "-" or missing.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		return []byte(args[0]), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}

	return data, nil
}

// commandLogger builds a logger writing to the command's error stream.
func commandLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return cfg.LoggerTo(cmd.ErrOrStderr())
}
