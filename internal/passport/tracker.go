package passport

import (
	"context"
	"sync"
	"time"

	"passportsheet/internal/domain"
	"passportsheet/internal/sheet"
)

// Ticket identifies one in-flight submission for a session.
type Ticket struct {
	SessionID  string
	Generation uint64
}

type sessionState struct {
	generation uint64
	cancel     context.CancelFunc
	sheet      *sheet.Sheet
	touched    time.Time
}

// Tracker holds the latest sheet per session and arbitrates between
// overlapping submissions. Only the newest submission of a session may
// publish a sheet.
type Tracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*sessionState
}

func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionState),
	}
}

// Begin starts a new generation for the session. The current sheet is
// dropped and any in-flight submission has its context cancelled.
func (t *Tracker) Begin(ctx context.Context, sessionID string) (context.Context, Ticket) {
	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.session(sessionID)
	if state.cancel != nil {
		state.cancel()
	}
	state.generation++
	state.cancel = cancel
	state.sheet = nil
	return runCtx, Ticket{SessionID: sessionID, Generation: state.generation}
}

// Complete publishes the sheet when the ticket is still the newest one.
func (t *Tracker) Complete(ticket Ticket, s *sheet.Sheet) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.sessions[ticket.SessionID]
	if !ok || state.generation != ticket.Generation {
		return domain.ErrSuperseded
	}
	state.sheet = s
	state.touched = t.now()
	return nil
}

// Current reports whether the ticket is still the newest for its session.
func (t *Tracker) Current(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.sessions[ticket.SessionID]
	return ok && state.generation == ticket.Generation
}

// Finish releases the context of a submission. Safe to call more than once.
func (t *Tracker) Finish(ticket Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.sessions[ticket.SessionID]
	if !ok || state.generation != ticket.Generation || state.cancel == nil {
		return
	}
	state.cancel()
	state.cancel = nil
}

func (t *Tracker) Sheet(sessionID string) (*sheet.Sheet, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.sessions[sessionID]
	if !ok || state.sheet == nil {
		return nil, false
	}
	state.touched = t.now()
	return state.sheet, true
}

// Take returns the current sheet and ends its lifetime.
func (t *Tracker) Take(sessionID string) (*sheet.Sheet, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.sessions[sessionID]
	if !ok || state.sheet == nil {
		return nil, false
	}
	s := state.sheet
	state.sheet = nil
	state.touched = t.now()
	return s, true
}

// TakeIf ends the lifetime of s only while it is still the session's
// current sheet. It returns the sheet that is current instead, if any.
func (t *Tracker) TakeIf(sessionID string, s *sheet.Sheet) (*sheet.Sheet, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.sessions[sessionID]
	if !ok || state.sheet == nil {
		return nil, false
	}
	if state.sheet != s {
		return state.sheet, false
	}
	state.sheet = nil
	state.touched = t.now()
	return s, true
}

func (t *Tracker) Discard(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.sessions[sessionID]
	if !ok || state.sheet == nil {
		return false
	}
	state.sheet = nil
	state.touched = t.now()
	return true
}

// Prune forgets idle sessions older than the TTL. Sessions with a
// submission in flight are kept.
func (t *Tracker) Prune() int {
	if t.ttl <= 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-t.ttl)
	removed := 0
	for id, state := range t.sessions {
		if state.cancel != nil {
			continue
		}
		if state.touched.Before(cutoff) {
			delete(t.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Tracker) session(sessionID string) *sessionState {
	state, ok := t.sessions[sessionID]
	if !ok {
		state = &sessionState{}
		t.sessions[sessionID] = state
	}
	state.touched = t.now()
	return state
}
