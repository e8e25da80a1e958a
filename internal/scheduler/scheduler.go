// Package scheduler owns the per-bot timer table and the run pipeline that
// fires from it. Each autonomous bot has at most one live timer; every run
// installs the next one, so runs for a single bot never overlap.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// runState tracks where a bot sits in its scheduling cycle.
type runState int

const (
	// stateScheduled: a timer is armed for a normal jittered fire.
	stateScheduled runState = iota
	// stateRunning: the run pipeline is executing for this bot.
	stateRunning
	// stateBackoff: a timer is armed for a fixed-delay retry after a
	// failed run.
	stateBackoff
)

// handle is the scheduler's live, cancellable reference to one bot's
// pending fire. Handles are owned exclusively by the Scheduler and are
// replaced, never mutated, when a bot is rescheduled.
type handle struct {
	botID  string
	state  runState
	fireAt time.Time
	gen    uint64
	timer  *time.Timer
}

// RunFunc executes one run for a bot. The scheduler invokes it when a timer
// fires; installing the next timer is the run's responsibility.
type RunFunc func(ctx context.Context, botID string)

// Scheduler maintains the bot id → timer handle table and guarantees at
// most one pending fire per bot. The table is the only shared state in the
// worker and every access goes through the mutex.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*handle
	gen     uint64
	run     RunFunc
	ctx     context.Context
	stopped bool
}

// New creates a Scheduler whose fires invoke run. ctx bounds the lifetime
// of every run the scheduler starts.
func New(ctx context.Context, run RunFunc) *Scheduler {
	return &Scheduler{
		timers: make(map[string]*handle),
		run:    run,
		ctx:    ctx,
	}
}

// Schedule cancels any existing timer for botID and installs a new one that
// fires after delay. A replaced timer never fires, even if its callback was
// already dequeued: the generation check in fire drops stale callbacks.
func (s *Scheduler) Schedule(botID string, delay time.Duration) {
	s.install(botID, delay, stateScheduled)
}

// ScheduleRetry is Schedule with the handle tagged as a failure backoff.
func (s *Scheduler) ScheduleRetry(botID string, delay time.Duration) {
	s.install(botID, delay, stateBackoff)
}

func (s *Scheduler) install(botID string, delay time.Duration, state runState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if old, ok := s.timers[botID]; ok {
		old.timer.Stop()
	}

	s.gen++
	gen := s.gen
	h := &handle{
		botID:  botID,
		state:  state,
		fireAt: time.Now().Add(delay),
		gen:    gen,
	}
	h.timer = time.AfterFunc(delay, func() {
		s.fire(botID, gen)
	})
	s.timers[botID] = h
}

// Cancel stops and removes botID's timer if present; no-op otherwise.
func (s *Scheduler) Cancel(botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.timers[botID]; ok {
		h.timer.Stop()
		delete(s.timers, botID)
	}
}

// IsActive reports whether a handle is currently installed for botID.
func (s *Scheduler) IsActive(botID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[botID]
	return ok
}

// TimeRemaining returns the delay until botID's next fire, derived from the
// handle's recorded fire time. The second return is false when no timer is
// installed. A bot whose run is in flight reports zero.
func (s *Scheduler) TimeRemaining(botID string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.timers[botID]
	if !ok {
		return 0, false
	}
	remaining := time.Until(h.fireAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Active returns the number of installed handles.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}

// Stop cancels every timer and rejects further scheduling. In-flight runs
// finish but cannot install new timers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, h := range s.timers {
		h.timer.Stop()
		delete(s.timers, id)
	}
	slog.Info("scheduler stopped")
}

// fire runs the pipeline for one timer expiry. Stale callbacks, replaced or
// cancelled between dequeue and execution, are dropped by the generation
// check.
func (s *Scheduler) fire(botID string, gen uint64) {
	s.mu.Lock()
	h, ok := s.timers[botID]
	if !ok || h.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	h.state = stateRunning
	s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	s.run(s.ctx, botID)

	// If the run left the handle untouched it chose not to reschedule
	// (the bot became ineligible mid-run); drop it so IsActive agrees.
	s.mu.Lock()
	if cur, ok := s.timers[botID]; ok && cur.gen == gen && cur.state == stateRunning {
		delete(s.timers, botID)
	}
	s.mu.Unlock()
}
