package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialCapsAtLimit(t *testing.T) {
	b := NewExponential(time.Millisecond, 4*time.Millisecond)
	require.Equal(t, time.Millisecond, b.NextDuration)

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Backoff(context.Background()))
	}
	require.Equal(t, 4, b.Attempts())
	require.Equal(t, 4*time.Millisecond, b.NextDuration)

	b.Reset()
	require.Equal(t, time.Millisecond, b.NextDuration)
	require.Equal(t, 0, b.Attempts())
}

func TestBackoffReturnsOnCancel(t *testing.T) {
	b := NewExponential(time.Hour, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.Backoff(ctx), context.Canceled)
	require.Equal(t, 0, b.Attempts())
}

func TestExponentialDoubles(t *testing.T) {
	b := NewExponential(time.Millisecond, 0)
	want := []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond}
	for _, w := range want {
		require.NoError(t, b.Backoff(context.Background()))
		require.Equal(t, w, b.NextDuration)
	}
}

func TestStartAboveLimit(t *testing.T) {
	b := NewExponential(time.Minute, time.Second)
	require.Equal(t, time.Second, b.NextDuration)
}
