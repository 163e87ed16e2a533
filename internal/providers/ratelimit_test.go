package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateGate_Wait(t *testing.T) {
	t.Run("first request passes immediately", func(t *testing.T) {
		gate := NewRateGate(time.Second)

		start := time.Now()
		require.NoError(t, gate.Wait(context.Background()))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("consecutive releases are separated by the interval", func(t *testing.T) {
		interval := 100 * time.Millisecond
		gate := NewRateGate(interval)
		ctx := context.Background()

		var releases []time.Time
		for i := 0; i < 3; i++ {
			require.NoError(t, gate.Wait(ctx))
			releases = append(releases, time.Now())
		}

		for i := 1; i < len(releases); i++ {
			gap := releases[i].Sub(releases[i-1])
			assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond,
				"release %d followed too quickly: %v", i, gap)
		}
	})

	t.Run("zero interval disables pacing", func(t *testing.T) {
		gate := NewRateGate(0)
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 10; i++ {
			require.NoError(t, gate.Wait(ctx))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		gate := NewRateGate(time.Hour)
		require.NoError(t, gate.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := gate.Wait(ctx)
		require.Error(t, err)
	})

	t.Run("records last request time", func(t *testing.T) {
		gate := NewRateGate(time.Millisecond)
		assert.True(t, gate.LastRequestTime().IsZero())

		require.NoError(t, gate.Wait(context.Background()))
		assert.WithinDuration(t, time.Now(), gate.LastRequestTime(), time.Second)
	})
}

func TestRateGate_SetInterval(t *testing.T) {
	gate := NewRateGate(time.Hour)
	gate.SetInterval(0)

	ctx := context.Background()
	start := time.Now()
	require.NoError(t, gate.Wait(ctx))
	require.NoError(t, gate.Wait(ctx))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
