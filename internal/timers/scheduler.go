// Package timers provides per-room one-shot timer scheduling for the turn
// and inactivity timeout families. At most one timer per room is active in a
// scheduler; scheduling again replaces the previous timer.
package timers

import (
	"sync"
	"time"

	"github.com/nwestbury/digitduel/internal/model"
)

// Handler is invoked when a room's timer fires. It runs on the timer
// goroutine and re-enters the coordinator like any client action, so it
// must re-validate room state itself.
type Handler func(roomID model.RoomID, slot model.Slot)

// Scheduler manages one timer family keyed by room id. A zero or negative
// duration disables the family entirely: Schedule becomes a no-op.
type Scheduler struct {
	duration time.Duration
	handler  Handler

	mu     sync.Mutex
	active map[model.RoomID]*time.Timer
}

// NewScheduler creates a scheduler firing handler after duration
func NewScheduler(duration time.Duration, handler Handler) *Scheduler {
	return &Scheduler{
		duration: duration,
		handler:  handler,
		active:   make(map[model.RoomID]*time.Timer),
	}
}

// Enabled reports whether this timer family is active
func (s *Scheduler) Enabled() bool {
	return s.duration > 0
}

// Duration returns the configured timeout
func (s *Scheduler) Duration() time.Duration {
	return s.duration
}

// Schedule cancels any existing timer for the room and starts a new one.
// The slot is passed through to the handler on fire.
func (s *Scheduler) Schedule(roomID model.RoomID, slot model.Slot) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.active[roomID]; ok {
		old.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.duration, func() {
		// Remove from the active set before invoking the handler so a
		// concurrent Cancel cannot race the fire; cancellation is
		// best-effort and the handler re-validates state anyway.
		s.mu.Lock()
		if s.active[roomID] == timer {
			delete(s.active, roomID)
		}
		s.mu.Unlock()

		s.handler(roomID, slot)
	})
	s.active[roomID] = timer
}

// Cancel stops the room's timer if one is active. Idempotent; a timer
// already in its fire transition may still invoke the handler.
func (s *Scheduler) Cancel(roomID model.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.active[roomID]; ok {
		timer.Stop()
		delete(s.active, roomID)
	}
}

// Active reports whether a timer is currently scheduled for the room
func (s *Scheduler) Active(roomID model.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[roomID]
	return ok
}

// Shutdown cancels every outstanding timer
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for roomID, timer := range s.active {
		timer.Stop()
		delete(s.active, roomID)
	}
}
