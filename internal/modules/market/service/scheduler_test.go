package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	s := NewScheduler(5*time.Millisecond, func() { ticks.Add(1) })

	s.Start(context.Background())
	assert.True(t, s.Running())

	require.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, time.Second, time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())

	// после Stop тиков больше нет
	n := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, ticks.Load())
}

func TestSchedulerRestartIdempotent(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	s := NewScheduler(5*time.Millisecond, func() { ticks.Add(1) })

	ctx := context.Background()
	// повторные Start не плодят параллельные циклы
	s.Start(ctx)
	s.Start(ctx)
	s.Start(ctx)
	defer s.Stop()

	ticks.Store(0)
	time.Sleep(52 * time.Millisecond)

	// один цикл на 5мс за ~50мс дал бы ~10 тиков; три цикла — ~30
	got := ticks.Load()
	assert.LessOrEqual(t, got, int64(15), "parallel tick loops detected")
	assert.GreaterOrEqual(t, got, int64(5))
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewScheduler(time.Second, func() {})
	s.Stop() // не паникует
	assert.False(t, s.Running())
}

func TestSchedulerCancelledContext(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	s := NewScheduler(5*time.Millisecond, func() { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	time.Sleep(20 * time.Millisecond)
	n := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, ticks.Load())
}
