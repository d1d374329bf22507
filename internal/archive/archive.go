// Package archive keeps a SQLite history of planning runs and the plans
// they produced.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/plan"
)

// ErrNotFound is returned when a run or one of its plans is not archived.
var ErrNotFound = errors.New("not found in archive")

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id     TEXT PRIMARY KEY,
    command    TEXT NOT NULL,
    strategy   TEXT NOT NULL DEFAULT '',
    outcome    TEXT NOT NULL,
    rules      INTEGER NOT NULL DEFAULT 0,
    elapsed_ms INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS plan_rows (
    run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    solution   INTEGER NOT NULL,
    slot_id    INTEGER NOT NULL,
    group_id   INTEGER NOT NULL,
    crop_name  TEXT NOT NULL,
    crop_type  TEXT NOT NULL,
    start_week INTEGER NOT NULL,
    end_week   INTEGER NOT NULL,
    bed_id     INTEGER NOT NULL,
    past       BOOLEAN NOT NULL,
    PRIMARY KEY (run_id, solution, slot_id)
);
`

// Entry is one archived run.
type Entry struct {
	RunID    string
	Command  string
	Strategy string
	Outcome  string
	Rules    int
	Elapsed  time.Duration
	Created  time.Time
	// Plans holds the solutions found, in order. List leaves it empty and
	// reports their number in Solutions.
	Plans     []*plan.Plan
	Solutions int
}

// Archive is a SQLite-backed run history in WAL mode.
type Archive struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path.
func Open(ctx context.Context, path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Record stores a run and its plans in one transaction.
func (a *Archive) Record(ctx context.Context, e Entry) (err error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	created := e.Created
	if created.IsZero() {
		created = time.Now()
	}
	const insertRun = `
		INSERT INTO runs (run_id, command, strategy, outcome, rules, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun, e.RunID, e.Command, e.Strategy, e.Outcome, e.Rules,
		e.Elapsed.Milliseconds(), created.UnixNano()); err != nil {
		return fmt.Errorf("archive: record run %s: %w", e.RunID, err)
	}

	const insertRow = `
		INSERT INTO plan_rows (run_id, solution, slot_id, group_id, crop_name, crop_type, start_week, end_week, bed_id, past)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return fmt.Errorf("archive: prepare: %w", err)
	}
	defer stmt.Close()
	for i, p := range e.Plans {
		for _, r := range p.Rows {
			if _, err := stmt.ExecContext(ctx, e.RunID, i+1, r.Slot, r.Group, r.Crop, r.Type,
				int(r.Start), int(r.End), r.Bed, r.Past); err != nil {
				return fmt.Errorf("archive: record plan %d of %s: %w", i+1, e.RunID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// List returns the most recent runs first, at most limit of them (all when
// limit <= 0).
func (a *Archive) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	const q = `
		SELECT r.run_id, r.command, r.strategy, r.outcome, r.rules, r.elapsed_ms, r.created_at,
		       (SELECT COUNT(DISTINCT solution) FROM plan_rows p WHERE p.run_id = r.run_id)
		FROM runs r
		ORDER BY r.created_at DESC, r.run_id
		LIMIT ?`
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			elapsed int64
			created int64
		)
		if err := rows.Scan(&e.RunID, &e.Command, &e.Strategy, &e.Outcome, &e.Rules, &elapsed, &created, &e.Solutions); err != nil {
			return nil, fmt.Errorf("archive: scan run: %w", err)
		}
		e.Elapsed = time.Duration(elapsed) * time.Millisecond
		e.Created = time.Unix(0, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	return out, nil
}

// Plan returns solution n (from 1) of a run.
func (a *Archive) Plan(ctx context.Context, runID string, n int) (*plan.Plan, error) {
	const q = `
		SELECT slot_id, group_id, crop_name, crop_type, start_week, end_week, bed_id, past
		FROM plan_rows
		WHERE run_id = ? AND solution = ?
		ORDER BY slot_id`
	rows, err := a.db.QueryContext(ctx, q, runID, n)
	if err != nil {
		return nil, fmt.Errorf("archive: plan %d of %s: %w", n, runID, err)
	}
	defer rows.Close()

	p := &plan.Plan{}
	for rows.Next() {
		var (
			r          plan.Row
			start, end int
		)
		if err := rows.Scan(&r.Slot, &r.Group, &r.Crop, &r.Type, &start, &end, &r.Bed, &r.Past); err != nil {
			return nil, fmt.Errorf("archive: scan plan row: %w", err)
		}
		r.Start, r.End = calendar.Week(start), calendar.Week(end)
		p.Rows = append(p.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: plan %d of %s: %w", n, runID, err)
	}
	if len(p.Rows) == 0 {
		return nil, fmt.Errorf("%w: plan %d of run %s", ErrNotFound, n, runID)
	}
	return p, nil
}
