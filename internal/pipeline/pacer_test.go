package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_FirstWaitIsImmediate(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewPacer(fc, 5*time.Second)

	require.NoError(t, p.Wait(context.Background()))
}

func TestPacer_BlocksForInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	p := NewPacer(fc, 5*time.Second)
	require.NoError(t, p.Wait(ctx))

	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx) }()

	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	select {
	case <-done:
		t.Fatal("second Wait returned before the interval elapsed")
	default:
	}

	fc.Advance(5 * time.Second)
	require.NoError(t, <-done)
}

func TestPacer_CountsElapsedTime(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	p := NewPacer(fc, 5*time.Second)
	require.NoError(t, p.Wait(ctx))

	fc.Advance(3 * time.Second)

	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx) }()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(2 * time.Second)
	require.NoError(t, <-done)
}

func TestPacer_NoWaitAfterInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewPacer(fc, time.Second)
	require.NoError(t, p.Wait(context.Background()))

	fc.Advance(2 * time.Second)
	require.NoError(t, p.Wait(context.Background()))
}

func TestPacer_ZeroInterval(t *testing.T) {
	p := NewPacer(clockwork.NewFakeClock(), 0)
	for range 3 {
		require.NoError(t, p.Wait(context.Background()))
	}
}

func TestPacer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fc := clockwork.NewFakeClock()
	p := NewPacer(fc, time.Minute)
	require.NoError(t, p.Wait(ctx))

	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, fc.BlockUntilContext(waitCtx, 1))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
