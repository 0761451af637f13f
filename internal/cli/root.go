// Package cli implements the harbor command line interface. The commands
// are thin: they load the config, open the database, and call into the
// wallet core; presentation beyond plain text and JSON stays external.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborwallet/harbor/internal/config"
	"github.com/harborwallet/harbor/internal/fedclient"
	"github.com/harborwallet/harbor/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the harbor CLI. The
// factory is the federated runtime binding supplied by the embedding
// application; a nil factory leaves only the read-only commands usable.
func NewRootCommand(factory fedclient.Factory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "harbor",
		Short: "Harbor - personal e-cash and Lightning wallet",
		Long:  "Harbor coordinates payments across federated e-cash mints and Lightning.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", defaultConfigPath(), "path to config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Subcommands
	cmd.AddCommand(NewRunCommand(opts, factory))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewMintsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "harbor.yaml"
	}
	return home + "/.harbor/harbor.yaml"
}

// loadConfig loads and validates the config file named by the global flag
// and applies the configured log level to the default slog handler.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "loading config", err)
	}
	slog.SetLogLoggerLevel(cfg.SlogLevel())
	return cfg, nil
}

// openStore opens the sqlite database under the configured data dir,
// creating the directory on first run.
func openStore(cfg config.Config) (*store.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, WrapExitError(ExitCommandError, "creating data dir", err)
	}
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}
	return db, nil
}
