// Package cli defines the socialnet command line.
package cli

import (
	"database/sql"
	"fmt"

	"github.com/isdelr/socialnet/internal/config"
	"github.com/isdelr/socialnet/internal/database"
	"github.com/isdelr/socialnet/internal/logger"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "socialnet",
		Short:         "socialnet - a small social network",
		Long:          "Serves user streams, friendships, posts and comments over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file (default $CONFIG_FILE)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewPurgeSessionsCommand(opts))

	return cmd
}

// loadConfig reads the configuration and initializes logging from it.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigFile != "" {
		cfg, err = config.LoadFrom(o.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	return cfg, nil
}

// openDatabase opens the database and brings its schema up to date.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply database migrations: %w", err)
	}
	return db, nil
}
