// Package schedule decides when the pipeline re-runs while content is
// still streaming. Bursts of updates coalesce into a single deferred
// run holding only the latest content, so re-render frequency is
// bounded regardless of token arrival rate and a stale snapshot never
// races in after a newer one.
package schedule

import (
	"sync"
	"time"
)

// DefaultDelay is the debounce window used when none is configured.
const DefaultDelay = 150 * time.Millisecond

// Scheduler debounces pipeline runs. Each renderer instance owns its
// own Scheduler; timers are never shared across messages.
type Scheduler struct {
	mu     sync.Mutex
	delay  time.Duration
	run    func(string)
	timer  *time.Timer
	latest string
	closed bool
}

// New creates a scheduler invoking run with the content to render.
// delay <= 0 selects DefaultDelay.
func New(delay time.Duration, run func(string)) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler{delay: delay, run: run}
}

// Schedule requests a render of content.
//
// When streaming is false any pending deferred run is cancelled and
// the pipeline runs synchronously, so a finalized message is never
// left showing a stale throttled snapshot. When streaming is true the
// content is recorded as latest and a timer is started only if none is
// pending; an update arriving while the timer runs just replaces the
// recorded content, guaranteeing at most one pending run.
func (s *Scheduler) Schedule(content string, streaming bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if !streaming {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.latest = content
		s.mu.Unlock()
		s.run(content)
		return
	}

	s.latest = content
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
	}
	s.mu.Unlock()
}

// fire runs the pipeline with whatever is the latest recorded content,
// not necessarily what started the timer.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	content := s.latest
	s.timer = nil
	s.mu.Unlock()
	s.run(content)
}

// Close cancels any pending run. Called when the consuming view is
// discarded so the pipeline never runs against a detached output.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
