// Package cli implements the isstracker command line.
package cli

import (
	"fmt"

	"github.com/bitmark-inc/logger"
	"github.com/spf13/cobra"

	"github.com/vjranagit/isstracker/internal/config"
)

// Version is reported by --version
const Version = "0.3.0"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool

	cfg *config.Config
}

// replaced in tests, where logging is set up once per package
var (
	initialiseLogger = logger.Initialise
	finaliseLogger   = logger.Finalise
)

// NewRootCommand creates the root command for the isstracker CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "isstracker",
		Short:   "ISS position and speed tracker",
		Long:    "Caches NASA's ISS trajectory feed and serves speed and ground-track queries over HTTP.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return err
			}
			if opts.Verbose {
				cfg.Logging.Levels[logger.DefaultTag] = "debug"
				cfg.Logging.Console = true
			}
			if err := initialiseLogger(cfg.ToLoggerConfig()); err != nil {
				return fmt.Errorf("logger initialization failed: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			finaliseLogger()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to the console")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewNowCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}
