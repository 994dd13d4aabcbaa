package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create call events",
		SQL: `
			CREATE TABLE call_events (
				seq         INTEGER PRIMARY KEY AUTOINCREMENT,
				id          TEXT NOT NULL UNIQUE,
				conference  TEXT NOT NULL DEFAULT '',
				ai_call_id  TEXT NOT NULL DEFAULT '',
				event       TEXT NOT NULL,
				detail      TEXT NOT NULL DEFAULT '',
				at          TEXT NOT NULL
			);

			CREATE INDEX idx_call_events_conference ON call_events (conference, seq);
		`,
	},
	{
		Version: 2,
		Name:    "index call events by ai call",
		SQL: `
			CREATE INDEX idx_call_events_ai_call ON call_events (ai_call_id) WHERE ai_call_id != '';
		`,
	},
}
