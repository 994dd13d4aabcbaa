// Package session holds the per-call correlation state that joins the
// telephony, AI provider and conference event streams.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Table is a string-keyed correlation table guarded by its own lock.
type Table struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{m: make(map[string]string)}
}

// Put sets key to value, replacing any previous value.
func (t *Table) Put(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[key] = value
}

// Get returns the value for key and whether it was present.
func (t *Table) Get(key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.m[key]
	return v, ok
}

// Remove deletes key. Removing a missing key is a no-op.
func (t *Table) Remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, key)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// Registry is the process-wide owner of call correlation state.
//
// Three tables carry the join keys: AI call id → conference name,
// conference name → caller number and conference name → call token.
// A lifecycle record per conference tracks the call state and lets
// every entry for a call be dropped once it ends.
type Registry struct {
	conferences *Table
	callers     *Table
	tokens      *Table

	mu       sync.Mutex
	calls    map[string]*CallSession // conference name → record
	handoffs map[string]bool         // conferences with a human leg being dialed

	now func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conferences: NewTable(),
		callers:     NewTable(),
		tokens:      NewTable(),
		calls:       make(map[string]*CallSession),
		handoffs:    make(map[string]bool),
		now:         time.Now,
	}
}

// Register records a new inbound call keyed by its conference name. The
// caller number and call token are committed before Register returns.
//
// A live record for the same conference is kept as is and Register
// reports existing. A bare record left by AttachAICall only gains the
// caller data.
func (r *Registry) Register(c CallSession) (existing bool) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.calls[c.ConferenceName]; ok {
		if rec.TelephonyCallID == "" {
			rec.TelephonyCallID = c.TelephonyCallID
			rec.CallerNumber = c.CallerNumber
			rec.CallToken = c.CallToken
			rec.UpdatedAt = now
			r.callers.Put(c.ConferenceName, c.CallerNumber)
			r.tokens.Put(c.ConferenceName, c.CallToken)
		}
		return true
	}

	c.State = StateRinging
	c.AICallID = ""
	c.CreatedAt = now
	c.UpdatedAt = now
	r.callers.Put(c.ConferenceName, c.CallerNumber)
	r.tokens.Put(c.ConferenceName, c.CallToken)
	r.calls[c.ConferenceName] = &c
	return false
}

// AttachAICall correlates an AI provider call id with a conference. A
// conference that was never registered gets a bare record so the entry is
// still reclaimed when the call ends or is swept.
func (r *Registry) AttachAICall(aiCallID, conference string) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conferences.Put(aiCallID, conference)

	rec, ok := r.calls[conference]
	if !ok {
		r.calls[conference] = &CallSession{
			ConferenceName: conference,
			AICallID:       aiCallID,
			State:          StateAIAccepted,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return
	}
	if rec.AICallID != "" && rec.AICallID != aiCallID {
		r.conferences.Remove(rec.AICallID)
	}
	rec.AICallID = aiCallID
	if rec.State.CanAdvance(StateAIAccepted) {
		rec.State = StateAIAccepted
	}
	rec.UpdatedAt = now
}

// ConferenceFor resolves the conference an AI call belongs to.
func (r *Registry) ConferenceFor(aiCallID string) (string, bool) {
	return r.conferences.Get(aiCallID)
}

// CallerFor resolves the caller number and call token of a conference.
// ok is false unless both are known.
func (r *Registry) CallerFor(conference string) (caller, token string, ok bool) {
	caller, okCaller := r.callers.Get(conference)
	token, okToken := r.tokens.Get(conference)
	if !okCaller || !okToken {
		return "", "", false
	}
	return caller, token, true
}

// Advance moves a call forward to next.
func (r *Registry) Advance(conference string, next State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.calls[conference]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConference, conference)
	}
	if !rec.State.CanAdvance(next) {
		return fmt.Errorf("%w: %s -> %s", ErrStateRegression, rec.State, next)
	}
	rec.State = next
	rec.UpdatedAt = r.now()
	return nil
}

// ClaimHandoff reserves the hand-off of a conference so only one runs at a
// time. It fails with ErrHandoffInFlight while another claim is held and
// with ErrStateRegression once a hand-off has been committed.
func (r *Registry) ClaimHandoff(conference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.calls[conference]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConference, conference)
	}
	if !rec.State.CanAdvance(StateHandoffRequested) {
		return fmt.Errorf("%w: %s -> %s", ErrStateRegression, rec.State, StateHandoffRequested)
	}
	if r.handoffs[conference] {
		return fmt.Errorf("%w: %s", ErrHandoffInFlight, conference)
	}
	r.handoffs[conference] = true
	return nil
}

// ReleaseHandoff drops the claim taken by ClaimHandoff. When dialed is
// true the call moves to StateHandoffRequested; otherwise a later
// ClaimHandoff may try again.
func (r *Registry) ReleaseHandoff(conference string, dialed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.handoffs, conference)
	rec, ok := r.calls[conference]
	if !ok || !dialed {
		return
	}
	// The human agent may already have joined.
	if rec.State.CanAdvance(StateHandoffRequested) {
		rec.State = StateHandoffRequested
		rec.UpdatedAt = r.now()
	}
}

// Snapshot returns a copy of the record for a conference.
func (r *Registry) Snapshot(conference string) (CallSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.calls[conference]
	if !ok {
		return CallSession{}, false
	}
	return *rec, true
}

// Forget ends a call and drops every correlation entry pinned to it.
// The returned snapshot carries StateEnded.
func (r *Registry) Forget(conference string) (CallSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forgetLocked(conference)
}

func (r *Registry) forgetLocked(conference string) (CallSession, bool) {
	rec, ok := r.calls[conference]
	if !ok {
		return CallSession{}, false
	}
	delete(r.calls, conference)
	delete(r.handoffs, conference)
	if rec.AICallID != "" {
		if conf, found := r.conferences.Get(rec.AICallID); found && conf == conference {
			r.conferences.Remove(rec.AICallID)
		}
	}
	r.callers.Remove(conference)
	r.tokens.Remove(conference)

	rec.State = StateEnded
	rec.UpdatedAt = r.now()
	return *rec, true
}

// Sweep forgets calls created more than maxAge ago and returns them.
func (r *Registry) Sweep(maxAge time.Duration) []CallSession {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	var swept []CallSession
	for conference, rec := range r.calls {
		if rec.CreatedAt.Before(cutoff) {
			if snap, ok := r.forgetLocked(conference); ok {
				swept = append(swept, snap)
			}
		}
	}
	return swept
}

// RunSweeper calls Sweep every interval until ctx is cancelled. Each swept
// call is passed to onSwept, which may be nil.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxAge time.Duration, onSwept func(CallSession)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range r.Sweep(maxAge) {
				if onSwept != nil {
					onSwept(c)
				}
			}
		}
	}
}

// Len returns the number of live calls.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
