package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dune005/syfte/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Scheduler runs named jobs on cron schedules in the app time zone.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
}

func NewScheduler(loc *time.Location) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:  ctx,
		stop: cancel,
	}
}

// AddJob registers fn under spec (standard 5-field syntax or descriptors
// like @every 1m). Runs of the same job never overlap.
func (s *Scheduler) AddJob(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		err := fn(s.ctx)
		elapsed := time.Since(start)
		metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())

		if err != nil {
			metrics.JobRuns.WithLabelValues(name, "error").Inc()
			slog.Error("scheduled job failed", "job", name, "error", err, "duration", elapsed)
			return
		}
		metrics.JobRuns.WithLabelValues(name, "ok").Inc()
		slog.Debug("scheduled job finished", "job", name, "duration", elapsed)
	})
	if err != nil {
		return err
	}

	slog.Info("scheduled job registered", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.stop()
	<-s.cron.Stop().Done()
}
