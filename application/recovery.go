package application

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type rearmer interface {
	Rearm(ctx context.Context) (int, error)
}

// Recovery re-arms pending rows that have no live countdown: all of them
// after a restart, and stragglers on a cron schedule afterwards.
type Recovery struct {
	services []rearmer
	cron     *cron.Cron
	timeout  time.Duration
}

func NewRecovery(personal *ReminderService, team *TeamReminderService) *Recovery {
	return &Recovery{
		services: []rearmer{personal, team},
		cron:     cron.New(),
		timeout:  time.Minute,
	}
}

// Sweep runs one re-arm pass and reports how many countdowns it started.
func (r *Recovery) Sweep(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, svc := range r.services {
		n, err := svc.Rearm(ctx)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Start schedules Sweep with a cron expression such as "@every 10m". An
// empty schedule leaves the sweep off.
func (r *Recovery) Start(schedule string) error {
	if schedule == "" {
		return nil
	}
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		n, err := r.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("reminder reconcile sweep")
			return
		}
		if n > 0 {
			log.Info().Int("rearmed", n).Msg("reminder reconcile sweep")
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	log.Info().Str("schedule", schedule).Msg("reminder reconcile started")
	return nil
}

func (r *Recovery) Stop() {
	<-r.cron.Stop().Done()
}
