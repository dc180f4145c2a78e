package sweeper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/logger"
)

// Sweeper defines the interface for sweeper implementations
// Sweepers are long-running background tasks that perform periodic maintenance
//
//go:generate mockgen -source=sweeper.go -destination=../mocks/sweeper.go -package=mocks -mock_names=Sweeper=MockSweeper
type Sweeper interface {
	// Start begins the sweeper's main loop
	// This is a blocking call that runs until the context is canceled
	Start(ctx context.Context) error

	// Stop gracefully stops the sweeper
	// This should wait for any in-progress work to complete
	Stop(ctx context.Context) error

	// Name returns the sweeper's name for logging and identification
	Name() string
}

// Job is one scheduled unit of work
type Job struct {
	// Name identifies the job in logs
	Name string
	// Spec is the cron expression the job runs on
	Spec string
	// Run does the work
	Run func(ctx context.Context) error
}

// cronSweeper runs a set of jobs on cron schedules. Each job is isolated: a
// failure or panic is logged and never blocks the other jobs.
type cronSweeper struct {
	name      string
	jobs      []Job
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewCronSweeper creates a sweeper running the given jobs on their schedules
func NewCronSweeper(name string, jobs []Job) Sweeper {
	return &cronSweeper{
		name:      name,
		jobs:      jobs,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *cronSweeper) Name() string {
	return s.name
}

// Start schedules the jobs and blocks until the context is canceled or Stop
// is called
func (s *cronSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	runner := cron.New()
	for _, job := range s.jobs {
		if _, err := runner.AddFunc(job.Spec, s.wrap(ctx, job)); err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}
		logger.InfoCtx(ctx, "job scheduled",
			zap.String("sweeper", s.name),
			zap.String("job", job.Name),
			zap.String("spec", job.Spec))
	}
	runner.Start()

	select {
	case <-ctx.Done():
		logger.InfoCtx(ctx, "sweeper stopping due to context cancellation",
			zap.String("sweeper", s.name), zap.Error(ctx.Err()))
	case <-s.stopChan:
		logger.InfoCtx(ctx, "sweeper stop requested", zap.String("sweeper", s.name))
	}

	// Wait for in-flight jobs before returning
	<-runner.Stop().Done()
	return nil
}

func (s *cronSweeper) wrap(ctx context.Context, job Job) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorCtx(ctx, fmt.Errorf("job %s panicked: %v", job.Name, r))
			}
		}()

		started := time.Now()
		if err := job.Run(ctx); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("job %s failed: %w", job.Name, err))
			return
		}

		logger.InfoCtx(ctx, "job finished",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(started)))
	}
}

// Stop gracefully stops the sweeper
func (s *cronSweeper) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}

	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
