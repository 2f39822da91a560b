package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Janitor periodically removes expired sessions.
type Janitor struct {
	sessions SessionPurger
	cron     *cron.Cron
	timeout  time.Duration
}

// NewJanitor creates a janitor that runs on a standard cron spec or a
// descriptor such as "@every 1h".
func NewJanitor(spec string, sessions SessionPurger) (*Janitor, error) {
	j := &Janitor{
		sessions: sessions,
		cron:     cron.New(),
		timeout:  30 * time.Second,
	}
	if _, err := j.cron.AddFunc(spec, j.run); err != nil {
		return nil, fmt.Errorf("invalid session purge schedule %q: %w", spec, err)
	}
	return j, nil
}

// Start begins running scheduled purges in the background.
func (j *Janitor) Start() {
	log.Info().Msg("Starting session janitor...")
	j.cron.Start()
}

// Stop halts the schedule and waits for a running purge to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	log.Info().Msg("Stopped session janitor.")
}

// PurgeOnce deletes expired sessions immediately.
func (j *Janitor) PurgeOnce(ctx context.Context) (int64, error) {
	return j.sessions.PurgeExpired(ctx)
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.PurgeOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Janitor: failed to purge expired sessions")
		return
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("Janitor: purged expired sessions")
	}
}
