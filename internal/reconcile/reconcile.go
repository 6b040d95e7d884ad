// Package reconcile schedules the background pass that finishes payments
// whose buyer closed the browser before the status poll completed.
package reconcile

import (
	"context"
	"time"

	"github.com/abogadosonline/aoe-api/internal/payment"
	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultSchedule = "@every 2m"
	DefaultMinAge   = 2 * time.Minute
	// BatchSize bounds the contracts checked per run
	BatchSize = 50
	// RunTimeout bounds one run, gateway calls included
	RunTimeout = 90 * time.Second
)

// Reconciler is implemented by payment.Service
type Reconciler interface {
	Reconcile(ctx context.Context, minAge time.Duration, limit int) (payment.ReconcileStats, error)
}

// Job is one reconciliation run
type Job struct {
	svc    Reconciler
	minAge time.Duration
	log    *zap.Logger
}

func NewJob(svc Reconciler, minAge time.Duration, log *zap.Logger) *Job {
	if minAge <= 0 {
		minAge = DefaultMinAge
	}
	return &Job{svc: svc, minAge: minAge, log: log}
}

// Run implements cron.Job
func (j *Job) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	start := time.Now()
	stats, err := j.svc.Reconcile(ctx, j.minAge, BatchSize)
	if err != nil {
		j.log.Error("Reconciliation run failed", zap.Error(err), zap.Int("checked", stats.Checked))
		return
	}
	if stats.Checked == 0 {
		return
	}
	j.log.Info("Reconciliation run finished",
		zap.Int("checked", stats.Checked),
		zap.Int("generated", stats.Generated),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", time.Since(start)),
	)
}

// Schedule registers the job on c. A run still in progress makes the next
// tick a no-op.
func Schedule(c *cron.Cron, svc Reconciler, cfg config.ReconcileConfig, log *zap.Logger) (cron.EntryID, error) {
	spec := cfg.Schedule
	if spec == "" {
		spec = DefaultSchedule
	}
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{log.Sugar()})).Then(NewJob(svc, cfg.MinAge, log))
	return c.AddJob(spec, job)
}

// cronLogger adapts zap to cron's logger interface
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
