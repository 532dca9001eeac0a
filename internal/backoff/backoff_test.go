package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDelayStartsAtBase(t *testing.T) {
	p := Policy{Base: time.Second}
	require.Equal(t, time.Second, p.Delay(0))
}

func TestDelayDoublesPerAttempt(t *testing.T) {
	p := Policy{Base: 250 * time.Millisecond}

	require.Equal(t, 250*time.Millisecond, p.Delay(0))
	require.Equal(t, 500*time.Millisecond, p.Delay(1))
	require.Equal(t, time.Second, p.Delay(2))
	require.Equal(t, 2*time.Second, p.Delay(3))
}

func TestDelayIsMonotonic(t *testing.T) {
	p := Policy{Base: time.Second}
	for k := 0; k < 20; k++ {
		require.GreaterOrEqual(t, p.Delay(k+1), p.Delay(k), "k=%d", k)
	}
}

func TestDelayDefaultsAndClamps(t *testing.T) {
	var p Policy
	require.Equal(t, DefaultBase, p.Delay(0))
	require.Equal(t, DefaultBase, p.Delay(-5))

	// Oversized attempt indexes must not overflow into negatives.
	require.Positive(t, p.Delay(500))
}
