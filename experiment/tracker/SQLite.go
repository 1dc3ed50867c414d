package tracker

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // SQLite driver
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite database of runs and their episodes
type Store struct {
	db *sql.DB
}

// RunMeta describes a run
type RunMeta struct {
	Mode  string // train or test
	EnvID string
}

// Run is a run recorded in a Store
type Run struct {
	ID        string
	Mode      string
	EnvID     string
	StartedAt time.Time
}

// Open opens, and creates if needed, the Store at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "open: could not create directory")
	}

	db, err := sql.Open("sqlite",
		path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"+
			"&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open: could not open database")
	}

	// Single writer
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "open")
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new run and returns a Tracker which records
// episodes for it. Closing the Tracker leaves the Store open.
func (s *Store) StartRun(ctx context.Context, meta RunMeta) (*SQLite, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, env_id, started_at) VALUES (?, ?, ?, ?)`,
		id, meta.Mode, meta.EnvID, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return nil, errors.Wrap(err, "startRun")
	}
	return &SQLite{store: s, runID: id}, nil
}

// Runs returns all runs, oldest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, env_id, started_at FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Mode, &r.EnvID, &started); err != nil {
			return nil, errors.Wrap(err, "runs: scan")
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, errors.Wrapf(err, "runs: run %v", r.ID)
		}
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "runs")
}

// Episodes returns the episodes of a run in order
func (s *Store) Episodes(ctx context.Context, runID string) ([]Episode,
	error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode, steps, return, epsilon, loss, learns, phase
		FROM episodes WHERE run_id = ? ORDER BY episode`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "episodes")
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.Episode, &e.Steps, &e.Return, &e.Epsilon,
			&e.Loss, &e.Learns, &e.Phase); err != nil {
			return nil, errors.Wrap(err, "episodes: scan")
		}
		episodes = append(episodes, e)
	}
	return episodes, errors.Wrap(rows.Err(), "episodes")
}

// SQLite is a Tracker which records episodes of one run in a Store
type SQLite struct {
	store *Store
	runID string
	owned bool
}

// OpenSQLite opens the Store at path and starts a new run in it. The
// Store is closed together with the returned Tracker.
func OpenSQLite(path string, meta RunMeta) (*SQLite, error) {
	store, err := Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "openSQLite")
	}

	s, err := store.StartRun(context.Background(), meta)
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "openSQLite")
	}
	s.owned = true
	return s, nil
}

// RunID returns the ID of the tracked run
func (s *SQLite) RunID() string {
	return s.runID
}

// Track records a single episode
func (s *SQLite) Track(e Episode) error {
	_, err := s.store.db.Exec(
		`INSERT INTO episodes (run_id, episode, steps, return, epsilon, loss,
		learns, phase) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, e.Episode, e.Steps, e.Return, e.Epsilon, e.Loss, e.Learns,
		e.Phase)
	return errors.Wrapf(err, "track: episode %d", e.Episode)
}

// Close closes the underlying Store if it was opened by OpenSQLite
func (s *SQLite) Close() error {
	if s.owned {
		return s.store.Close()
	}
	return nil
}
