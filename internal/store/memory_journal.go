package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryJournal keeps the most recent call events in memory. It is used
// when the on-disk journal is disabled.
type MemoryJournal struct {
	mu     sync.Mutex
	events []CallEvent
	max    int
}

// NewMemoryJournal creates a journal holding at most capacity events.
func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryJournal{max: capacity}
}

// Record appends an event, dropping the oldest once full.
func (j *MemoryJournal) Record(_ context.Context, ev CallEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	if over := len(j.events) - j.max; over > 0 {
		j.events = append([]CallEvent(nil), j.events[over:]...)
	}
	return nil
}

// List returns events oldest first.
func (j *MemoryJournal) List(_ context.Context, conference string, limit int) ([]CallEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []CallEvent
	for _, ev := range j.events {
		if conference == "" || ev.Conference == conference {
			out = append(out, ev)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
