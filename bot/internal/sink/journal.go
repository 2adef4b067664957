package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/wplacebot/event"

	_ "modernc.org/sqlite"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS placement_events (
	id        TEXT PRIMARY KEY,
	job_id    TEXT NOT NULL DEFAULT '',
	seq       INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	idx       INTEGER NOT NULL,
	total     INTEGER NOT NULL,
	x         INTEGER NOT NULL,
	y         INTEGER NOT NULL,
	color     TEXT NOT NULL DEFAULT '',
	matched   TEXT NOT NULL DEFAULT '',
	distance  REAL NOT NULL DEFAULT 0,
	reason    TEXT NOT NULL DEFAULT '',
	detail    TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_placement_events_job ON placement_events(job_id, seq);
`

// Journal records every event in an SQLite table. It is an audit trail of
// what was drawn; it never feeds pixels back into a queue.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the journal database at path. ":memory:"
// gives a private in-memory journal.
func OpenJournal(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("journal: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Send(ctx context.Context, ev event.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO placement_events
			(id, job_id, seq, kind, idx, total, x, y, color, matched, distance, reason, detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.JobID, ev.Seq, string(ev.Kind), ev.Index, ev.Total, ev.X, ev.Y,
		ev.Color, ev.Matched, ev.Distance, string(ev.Reason), ev.Detail, ev.Timestamp)
	if err != nil {
		return fmt.Errorf("journal: insert %s: %w", ev.Kind, err)
	}
	return nil
}

// JobEvents returns the events of one job in sequence order.
func (j *Journal) JobEvents(ctx context.Context, jobID string) ([]event.Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, job_id, seq, kind, idx, total, x, y, color, matched, distance, reason, detail, timestamp
		FROM placement_events WHERE job_id = ? ORDER BY seq`, jobID)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var ev event.Event
		var kind, reason string
		if err := rows.Scan(&ev.ID, &ev.JobID, &ev.Seq, &kind, &ev.Index, &ev.Total, &ev.X, &ev.Y,
			&ev.Color, &ev.Matched, &ev.Distance, &reason, &ev.Detail, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		ev.Kind = event.Kind(kind)
		ev.Reason = event.Reason(reason)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// PlacedCount returns how many pixels a job actually clicked.
func (j *Journal) PlacedCount(ctx context.Context, jobID string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM placement_events WHERE job_id = ? AND kind = ?`,
		jobID, string(event.KindPlaced)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}

func (j *Journal) Close() error { return j.db.Close() }
