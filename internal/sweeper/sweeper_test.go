package sweeper_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/sweeper"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestCronSweeper_StartStop(t *testing.T) {
	s := sweeper.NewCronSweeper("test-sweeper", []sweeper.Job{
		{Name: "noop", Spec: "@every 1h", Run: func(context.Context) error { return nil }},
	})

	assert.Equal(t, "test-sweeper", s.Name())

	done := make(chan error, 1)
	go func() {
		done <- s.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-done)
}

func TestCronSweeper_RejectsDoubleStart(t *testing.T) {
	s := sweeper.NewCronSweeper("test-sweeper", nil)

	done := make(chan error, 1)
	go func() {
		done <- s.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Error(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-done)
}

func TestCronSweeper_JobsRun(t *testing.T) {
	var ran, failed atomic.Int32
	s := sweeper.NewCronSweeper("test-sweeper", []sweeper.Job{
		{Name: "failing", Spec: "@every 100ms", Run: func(context.Context) error {
			failed.Add(1)
			return errors.New("boom")
		}},
		{Name: "counting", Spec: "@every 100ms", Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return ran.Load() >= 2 && failed.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)

	// One job failing never blocks the other
	cancel()
	require.NoError(t, <-done)
}

func TestCronSweeper_InvalidSpec(t *testing.T) {
	s := sweeper.NewCronSweeper("test-sweeper", []sweeper.Job{
		{Name: "broken", Spec: "not a cron spec", Run: func(context.Context) error { return nil }},
	})

	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestCronSweeper_StopWithoutStart(t *testing.T) {
	s := sweeper.NewCronSweeper("test-sweeper", nil)
	assert.NoError(t, s.Stop(context.Background()))
}
