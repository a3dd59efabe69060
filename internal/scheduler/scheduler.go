package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/christophergentle/instaposter/internal/config"
)

// Job is one scheduled unit of work. It reports nothing back: failures are
// the job's own business to log.
type Job func(ctx context.Context)

type Scheduler struct {
	cron       *cron.Cron
	spec       string
	job        Job
	runOnStart bool
	logger     cron.Logger
	log        logrus.FieldLogger
	entry      cron.EntryID
}

// New builds a daily scheduler firing at cfg.Time in cfg.Timezone
// (process-local when empty).
func New(cfg config.ScheduleConfig, job Job, log logrus.FieldLogger) (*Scheduler, error) {
	hour, minute, err := ParseTimeOfDay(cfg.Time)
	if err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.Timezone, err)
		}
	}

	return newWithSpec(DailySpec(hour, minute), loc, cfg.RunOnStart, job, log), nil
}

func newWithSpec(spec string, loc *time.Location, runOnStart bool, job Job, log logrus.FieldLogger) *Scheduler {
	logger := cron.PrintfLogger(log)

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec:       spec,
		job:        job,
		runOnStart: runOnStart,
		logger:     logger,
		log:        log,
	}
}

// ParseTimeOfDay parses a 24 hour "HH:MM" wall-clock time.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid schedule time %q, expected HH:MM: %w", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

// DailySpec is the cron expression for once a day at hour:minute.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// Run blocks until ctx is cancelled, then waits for an in-flight job to
// finish. A job that panics is logged and the next tick still fires. Jobs
// get a context that outlives the shutdown signal so a publish that has
// already started is not cut off halfway.
func (s *Scheduler) Run(ctx context.Context) error {
	jobCtx := context.WithoutCancel(ctx)
	job := cron.FuncJob(func() { s.job(jobCtx) })

	id, err := s.cron.AddJob(s.spec, job)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", s.spec, err)
	}
	s.entry = id

	if s.runOnStart {
		s.log.Info("Running job once at startup")
		cron.NewChain(cron.Recover(s.logger)).Then(job).Run()
	}

	s.cron.Start()
	s.log.WithField("next_run", s.NextRun().Format(time.RFC3339)).Info("Scheduler started")

	<-ctx.Done()

	s.log.Info("Shutting down scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// NextRun is the time of the next scheduled tick, zero before Run.
func (s *Scheduler) NextRun() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}
