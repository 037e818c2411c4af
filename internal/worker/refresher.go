package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"fleet-dashboard/internal/model"
	"fleet-dashboard/internal/service"
)

type Reloader interface {
	Reload(ctx context.Context) (*model.DashboardState, error)
}

// Refresher reloads the dashboard once at start and then on a fixed
// interval.
type Refresher struct {
	reloader Reloader
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	cron     *cron.Cron
}

func NewRefresher(reloader Reloader, interval time.Duration, log zerolog.Logger) *Refresher {
	timeout := interval
	if timeout > time.Minute {
		timeout = time.Minute
	}
	return &Refresher{
		reloader: reloader,
		interval: interval,
		timeout:  timeout,
		log:      log,
		cron:     cron.New(),
	}
}

// Start schedules the periodic reload and runs the first one in the
// background. Reloads stop when ctx is done or Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := r.cron.AddFunc(spec, func() { r.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", spec, err)
	}
	r.cron.Start()
	r.log.Info().Dur("interval", r.interval).Msg("refresh worker started")

	go r.Tick(ctx)
	return nil
}

// Stop halts scheduling and waits for a running reload to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info().Msg("refresh worker stopped")
}

// Tick performs one bounded reload.
func (r *Refresher) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	tickCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.reloader.Reload(tickCtx); err != nil {
		if errors.Is(err, service.ErrSuperseded) {
			r.log.Debug().Msg("periodic reload superseded")
			return
		}
		r.log.Warn().Err(err).Msg("periodic reload failed")
	}
}
