// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CardExpirer moves cards past their expiry month to EXPIRED.
type CardExpirer interface {
	ExpireDueCards(ctx context.Context, now time.Time) (int, error)
}

// ExpiryJob is a cron.Job that expires due cards.
type ExpiryJob struct {
	cards   CardExpirer
	log     *logrus.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewExpiryJob(cards CardExpirer, log *logrus.Logger, timeout time.Duration) *ExpiryJob {
	return &ExpiryJob{cards: cards, log: log, timeout: timeout, now: time.Now}
}

func (j *ExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	started := j.now()
	count, err := j.cards.ExpireDueCards(ctx, started)
	if err != nil {
		j.log.WithError(err).Error("Card expiry run failed")
		return
	}
	j.log.WithFields(logrus.Fields{
		"expired":     count,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Card expiry run finished")
}

// Scheduler wraps a cron runner working in UTC.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

func New(log *logrus.Logger) *Scheduler {
	logger := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		log: log,
	}
}

// Add registers job under a standard 5-field cron spec.
func (s *Scheduler) Add(name, spec string, job cron.Job) error {
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	s.log.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Job scheduled")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
