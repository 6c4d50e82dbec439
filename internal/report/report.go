// Package report stores conversion run records in a local SQLite
// database so fidelity can be tracked across runs. Two drivers are
// compiled in alternation: a pure-Go driver by default, and
// mattn/go-sqlite3 behind the cgo_sqlite build tag.
package report

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/DocLoom/core/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	direction   TEXT NOT NULL,
	input       TEXT NOT NULL,
	output      TEXT NOT NULL,
	class       TEXT NOT NULL,
	diagnostics INTEGER NOT NULL,
	ledger      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Run is one recorded conversion.
type Run struct {
	ID          string
	StartedAt   time.Time
	Direction   string // "extract" or "render"
	Input       string
	Output      string
	Class       string
	Diagnostics int
	Ledger      string // ledger JSON
}

// Store is an open run database.
type Store struct {
	db *sql.DB
}

// DriverType reports which SQLite driver this binary was built with.
func DriverType() string {
	return driverType
}

// Open opens (creating if needed) a run database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrap(err, "opening report database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing report schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run, assigning an id and start time when absent, and
// returns the run id.
func (s *Store) Record(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, direction, input, output, class, diagnostics, ledger)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.Format(time.RFC3339),
		run.Direction,
		run.Input,
		run.Output,
		run.Class,
		run.Diagnostics,
		run.Ledger,
	)
	if err != nil {
		return "", errors.Wrap(err, "recording run")
	}
	return run.ID, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, direction, input, output, class, diagnostics, ledger
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(&run.ID, &started, &run.Direction, &run.Input, &run.Output, &run.Class, &run.Diagnostics, &run.Ledger); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns a single run by id.
func (s *Store) Get(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, direction, input, output, class, diagnostics, ledger
		 FROM runs WHERE id = ?`, id)
	var run Run
	var started string
	err := row.Scan(&run.ID, &started, &run.Direction, &run.Input, &run.Output, &run.Class, &run.Diagnostics, &run.Ledger)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "run %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading run")
	}
	run.StartedAt, _ = time.Parse(time.RFC3339, started)
	return &run, nil
}
