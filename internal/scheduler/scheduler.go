package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

// Job is a unit of work run on a cron schedule.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to the Job interface.
type JobFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewJobFunc wraps fn as a named job.
func NewJobFunc(name string, fn func(ctx context.Context) error) JobFunc {
	return JobFunc{name: name, fn: fn}
}

func (j JobFunc) Name() string {
	return j.name
}

func (j JobFunc) Run(ctx context.Context) error {
	return j.fn(ctx)
}

// Scheduler runs jobs on standard five-field cron expressions.
// A job that is still running when its next tick fires is skipped for that tick.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
	ctx  context.Context
}

// Option configures a Scheduler.
type Option func(opts *[]cron.Option)

// WithLocation evaluates schedules in loc instead of the local time zone.
func WithLocation(loc *time.Location) Option {
	return func(opts *[]cron.Option) {
		*opts = append(*opts, cron.WithLocation(loc))
	}
}

// New creates a scheduler. Jobs receive ctx, so cancelling it aborts in-flight runs.
func New(ctx context.Context, log *logger.Logger, options ...Option) *Scheduler {
	s := &Scheduler{
		log: log.Named("scheduler"),
		ctx: ctx,
	}

	cronLog := cronLogger{log: s.log}
	opts := []cron.Option{
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	}

	for _, option := range options {
		option(&opts)
	}

	s.cron = cron.New(opts...)

	return s
}

// Add registers job under spec.
func (s *Scheduler) Add(spec string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		s.run(job)
	})
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule %q for job %s", spec, job.Name())
	}

	s.log.Info("Job registered", zap.String("job", job.Name()), zap.String("schedule", spec))

	return id, nil
}

// Next returns the next activation time of the entry, or the zero time if unknown.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("Running job immediately", zap.String("job", job.Name()))

	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	s.log.Debug("Running job", zap.String("job", job.Name()))

	err := job.Run(s.ctx)
	if err != nil {
		s.log.Error("Job failed", zap.String("job", job.Name()), zap.Error(err))

		return err
	}

	s.log.Info("Job completed", zap.String("job", job.Name()), zap.Duration("elapsed", time.Since(start)))

	return nil
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
