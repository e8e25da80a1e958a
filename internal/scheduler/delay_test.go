package scheduler

import (
	"math/rand"
	"testing"
	"time"
)

func TestNextFastModeBounds(t *testing.T) {
	d := NewDelaysWithSource(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		delay := d.Next(0)
		if delay < 10*time.Second || delay > 30*time.Second {
			t.Fatalf("fast mode delay %v outside [10s, 30s]", delay)
		}
	}
}

func TestNextJitterBounds(t *testing.T) {
	d := NewDelaysWithSource(rand.NewSource(2))

	for i := 0; i < 1000; i++ {
		delay := d.Next(60)
		if delay < 55*time.Minute || delay > 65*time.Minute {
			t.Fatalf("jittered delay %v outside [55m, 65m]", delay)
		}
	}
}

func TestNextClampsNonNegative(t *testing.T) {
	d := NewDelaysWithSource(rand.NewSource(3))

	// A 1-minute frequency can jitter up to 5 minutes downward; the result
	// must never go negative.
	for i := 0; i < 1000; i++ {
		if delay := d.Next(1); delay < 0 {
			t.Fatalf("delay %v is negative", delay)
		}
	}
}

func TestRetryIsFixed(t *testing.T) {
	d := NewDelays()

	for i := 0; i < 10; i++ {
		if got := d.Retry(); got != 15*time.Minute {
			t.Fatalf("retry delay = %v, want exactly 15m", got)
		}
	}
}

func TestBootstrapBounds(t *testing.T) {
	d := NewDelaysWithSource(rand.NewSource(4))

	for i := 0; i < 1000; i++ {
		delay := d.Bootstrap()
		if delay < 0 || delay >= 30*time.Minute {
			t.Fatalf("bootstrap delay %v outside [0, 30m)", delay)
		}
	}
}
