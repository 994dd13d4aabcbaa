package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/warmline/internal/hooks"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// CallEvent is one journaled step in the life of a call.
type CallEvent struct {
	ID         string    `json:"id"`
	Conference string    `json:"conference,omitempty"`
	AICallID   string    `json:"aiCallId,omitempty"`
	Event      string    `json:"event"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Journal records call events and lists them back, oldest first.
type Journal interface {
	Record(ctx context.Context, ev CallEvent) error
	// List returns the events of one conference, or the most recent events
	// of all calls when conference is empty. limit <= 0 means no limit.
	List(ctx context.Context, conference string, limit int) ([]CallEvent, error)
}

// Subscribe journals every call lifecycle hook event.
func Subscribe(m *hooks.Manager, j Journal) {
	for _, event := range hooks.CallEvents {
		m.On(event, "journal", func(ctx context.Context, p hooks.Payload) error {
			return j.Record(ctx, CallEvent{
				Conference: p.Conference,
				AICallID:   p.AICallID,
				Event:      p.Event,
				Detail:     p.Detail,
				At:         p.At,
			})
		})
	}
}

// SQLiteJournal stores call events in the call_events table.
type SQLiteJournal struct {
	db *DB
}

// NewSQLiteJournal creates a journal using the given database.
func NewSQLiteJournal(db *DB) *SQLiteJournal {
	return &SQLiteJournal{db: db}
}

// Record appends an event.
func (j *SQLiteJournal) Record(ctx context.Context, ev CallEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	_, err := j.db.sql.ExecContext(ctx,
		`INSERT INTO call_events (id, conference, ai_call_id, event, detail, at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Conference, ev.AICallID, ev.Event, ev.Detail,
		ev.At.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording %s event: %w", ev.Event, err)
	}
	return nil
}

// List returns events oldest first.
func (j *SQLiteJournal) List(ctx context.Context, conference string, limit int) ([]CallEvent, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT id, conference, ai_call_id, event, detail, at FROM (
		SELECT seq, id, conference, ai_call_id, event, detail, at FROM call_events
		ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`
	args := []any{limit}
	if conference != "" {
		query = `SELECT id, conference, ai_call_id, event, detail, at FROM (
			SELECT seq, id, conference, ai_call_id, event, detail, at FROM call_events
			WHERE conference = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`
		args = []any{conference, limit}
	}

	rows, err := j.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing call events: %w", err)
	}
	defer rows.Close()

	var events []CallEvent
	for rows.Next() {
		var ev CallEvent
		var at string
		if err := rows.Scan(&ev.ID, &ev.Conference, &ev.AICallID, &ev.Event, &ev.Detail, &at); err != nil {
			return nil, fmt.Errorf("scanning call event: %w", err)
		}
		ev.At, _ = time.Parse(timeLayout, at)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Prune deletes events recorded before cutoff and reports how many were removed.
func (j *SQLiteJournal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.sql.ExecContext(ctx,
		"DELETE FROM call_events WHERE at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning call events: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarises what the journal holds.
type Stats struct {
	Events      int
	Conferences int
	Oldest      time.Time
}

// Stats counts journaled events and the distinct conferences they belong to.
func (j *SQLiteJournal) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var oldest sql.NullString
	err := j.db.sql.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT NULLIF(conference, '')), MIN(at) FROM call_events",
	).Scan(&st.Events, &st.Conferences, &oldest)
	if err != nil {
		return Stats{}, fmt.Errorf("reading journal stats: %w", err)
	}
	if oldest.Valid {
		st.Oldest, _ = time.Parse(timeLayout, oldest.String)
	}
	return st, nil
}
