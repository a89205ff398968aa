// Package scheduler wires up the cron jobs that keep the service honest
// between requests: the job status drift audit, the gRPC health refresh and
// the rate limiter sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"hirely/api-service/internal/jobs"
	"hirely/api-service/internal/logging"
	"hirely/api-service/internal/metrics"
)

// limiterIdle is how long a rate limiter key may stay unused before the
// sweep drops it.
const limiterIdle = 10 * time.Minute

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter receives the health refresh result.
type HealthReporter interface {
	SetServing(ok bool)
}

// Sweeper drops idle rate limiter entries and returns how many it removed.
type Sweeper interface {
	Cleanup(maxIdle time.Duration) int
}

// Deps are the collaborators the jobs run against. Nil fields disable the
// corresponding job.
type Deps struct {
	Audit   jobs.AuditStore
	DB      Pinger
	Health  HealthReporter
	Limiter Sweeper
}

// Schedule holds the cron specs, e.g. "@every 15m". Audit also drives the
// rate limiter sweep.
type Schedule struct {
	Audit  string
	Health string
}

// Scheduler wraps robfig/cron and manages the periodic jobs.
type Scheduler struct {
	cron  *cron.Cron
	deps  Deps
	sched Schedule
	log   *logrus.Entry
}

// New creates a Scheduler that fires on sched.
func New(sched Schedule, deps Deps, log logrus.FieldLogger) *Scheduler {
	entry := logging.Component(log, "scheduler")
	cl := cron.PrintfLogger(entry)
	return &Scheduler{
		cron:  cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		deps:  deps,
		sched: sched,
		log:   entry,
	}
}

// Start registers the jobs and starts the scheduler. The health refresh
// also runs once immediately so gRPC health is correct before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.sched.Audit, func() { s.RunAudit(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc audit: %w", err)
	}
	if _, err := s.cron.AddFunc(s.sched.Health, func() { s.RefreshHealth(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc health: %w", err)
	}
	if _, err := s.cron.AddFunc(s.sched.Audit, s.SweepLimiter); err != nil {
		return fmt.Errorf("cron.AddFunc sweep: %w", err)
	}

	s.cron.Start()
	s.log.WithFields(logrus.Fields{
		"audit":  s.sched.Audit,
		"health": s.sched.Health,
	}).Info("cron started")

	s.RefreshHealth(ctx)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

// RunAudit reports jobs whose stored status disagrees with their active
// assignments and returns how many there were. It never writes.
func (s *Scheduler) RunAudit(ctx context.Context) int {
	if s.deps.Audit == nil {
		return 0
	}
	drift, err := jobs.Audit(ctx, s.deps.Audit)
	if err != nil {
		s.log.WithError(err).Error("status audit failed")
		return 0
	}
	metrics.SetStatusDrift(len(drift))
	for _, d := range drift {
		s.log.WithFields(logrus.Fields{
			"job_id":   d.JobID,
			"stored":   d.Stored,
			"expected": d.Expected,
			"active":   d.Active,
		}).Warn("job status drift")
	}
	if len(drift) == 0 {
		s.log.Debug("status audit clean")
	}
	return len(drift)
}

// RefreshHealth pings the database and publishes the result.
func (s *Scheduler) RefreshHealth(ctx context.Context) {
	if s.deps.DB == nil || s.deps.Health == nil {
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := s.deps.DB.Ping(pingCtx)
	if err != nil {
		s.log.WithError(err).Warn("database ping failed")
	}
	s.deps.Health.SetServing(err == nil)
}

// SweepLimiter drops idle rate limiter keys.
func (s *Scheduler) SweepLimiter() {
	if s.deps.Limiter == nil {
		return
	}
	if n := s.deps.Limiter.Cleanup(limiterIdle); n > 0 {
		s.log.WithField("removed", n).Debug("rate limiter swept")
	}
}
