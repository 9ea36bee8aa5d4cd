package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRunAlignsToBoundary(t *testing.T) {
	s := NewAlignedScheduler(context.Background(), 5*time.Minute, 0)

	now := time.Date(2024, 1, 2, 10, 2, 30, 0, time.UTC)
	wakeAt, wait := s.nextRun(now)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 5, 0, 0, time.UTC), wakeAt)
	assert.Equal(t, 2*time.Minute+30*time.Second, wait)

	// Exactly on a boundary: the next one, never now.
	now = time.Date(2024, 1, 2, 10, 5, 0, 0, time.UTC)
	wakeAt, _ = s.nextRun(now)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 10, 0, 0, time.UTC), wakeAt)
}

func TestNextRunAppliesOffset(t *testing.T) {
	s := NewAlignedScheduler(context.Background(), 5*time.Minute, 30*time.Second)

	now := time.Date(2024, 1, 2, 10, 2, 0, 0, time.UTC)
	wakeAt, wait := s.nextRun(now)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 5, 30, 0, time.UTC), wakeAt)
	assert.Equal(t, 3*time.Minute+30*time.Second, wait)
}

func TestStartRunsAtBoundaries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewAlignedScheduler(ctx, 50*time.Millisecond, 0)

	runs := 0
	done := make(chan struct{})
	go func() {
		s.Start(func() {
			runs++
			if runs == 2 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not run twice in time")
	}
	require.GreaterOrEqual(t, runs, 2)
}

func TestStartRunImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewAlignedScheduler(ctx, time.Hour, 0)
	s.RunImmediately = true

	ran := make(chan struct{}, 1)
	go s.Start(func() {
		ran <- struct{}{}
		cancel()
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate run did not happen")
	}
}

func TestStartRejectsBadSetup(t *testing.T) {
	// These must all return instead of hanging.
	NewAlignedScheduler(context.Background(), time.Minute, 0).Start(nil)
	NewAlignedScheduler(context.Background(), 0, 0).Start(func() {})
	var s *AlignedScheduler
	s.Start(func() {})
}

func TestParseRunInterval(t *testing.T) {
	cases := map[string]time.Duration{
		"5m":   5 * time.Minute,
		"15m":  15 * time.Minute,
		"1h":   time.Hour,
		"4h":   4 * time.Hour,
		"1d":   24 * time.Hour,
		" 5M ": 5 * time.Minute,
	}
	for in, want := range cases {
		got, ok := ParseRunInterval(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "m", "5", "0m", "-5m", "5w", "x5m", "5.5m"} {
		_, ok := ParseRunInterval(in)
		assert.False(t, ok, in)
	}
}
