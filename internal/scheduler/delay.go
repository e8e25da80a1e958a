package scheduler

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// Fast mode (frequency 0) still floors the delay so the publisher is
	// never hammered back-to-back.
	fastModeMin = 10 * time.Second
	fastModeMax = 30 * time.Second

	// jitterRange offsets the configured frequency by up to ±5 minutes so
	// the posting cadence is not perfectly periodic.
	jitterRange = 5 * time.Minute

	// retryDelay is the fixed, unjittered failure backoff. Failures are
	// assumed transient; a flat delay avoids hot-looping against a failing
	// provider.
	retryDelay = 15 * time.Minute

	// bootstrapMax spreads initial fires over half an hour so a restart
	// does not fire the whole fleet at once.
	bootstrapMax = 30 * time.Minute
)

// Delays computes scheduling delays. The rand source is injectable so tests
// can pin the jitter; the mutex makes it safe to sample from timer
// goroutines and HTTP handlers alike.
type Delays struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewDelays returns a Delays seeded from the wall clock.
func NewDelays() *Delays {
	return NewDelaysWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewDelaysWithSource returns a Delays drawing from src.
func NewDelaysWithSource(src rand.Source) *Delays {
	return &Delays{rand: rand.New(src)}
}

func (d *Delays) uniform(max time.Duration) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return time.Duration(d.rand.Int63n(int64(max)))
}

// Next returns the success-path delay for a bot posting every freqMinutes
// minutes: the frequency jittered by ±5 minutes, clamped non-negative.
// Frequency 0 means "as fast as safely possible" and draws from [10s, 30s].
func (d *Delays) Next(freqMinutes int) time.Duration {
	if freqMinutes <= 0 {
		return fastModeMin + d.uniform(fastModeMax-fastModeMin)
	}

	base := time.Duration(freqMinutes) * time.Minute
	jitter := d.uniform(2*jitterRange) - jitterRange
	delay := base + jitter
	if delay < 0 {
		delay = 0
	}
	return delay
}

// Retry returns the fixed failure-path delay.
func (d *Delays) Retry() time.Duration {
	return retryDelay
}

// Bootstrap returns the initial delay for a bot seeded at process start,
// uniform over [0, 30m).
func (d *Delays) Bootstrap() time.Duration {
	return d.uniform(bootstrapMax)
}
