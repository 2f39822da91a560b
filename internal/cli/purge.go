package cli

import (
	"context"
	"time"

	"github.com/isdelr/socialnet/internal/monitoring"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewPurgeSessionsCommand creates the purge-sessions command, a one-shot
// run of the session janitor for use from an external scheduler.
func NewPurgeSessionsCommand(opts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired sessions and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			sessions := services.NewSessionService(db, cfg.SessionTTL, cfg.RememberTTL)
			janitor, err := monitoring.NewJanitor(cfg.SessionPurgeSpec, sessions)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			n, err := janitor.PurgeOnce(ctx)
			if err != nil {
				return err
			}
			log.Info().Int64("purged", n).Msg("Purged expired sessions")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "maximum time to spend purging")
	return cmd
}
