// Package store persists run artifacts in SQLite, as an alternative to
// writing them to the filesystem.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = eris.New("artifact not found")

// SQLiteStore implements core.ArtifactStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS artifacts (
	run        TEXT NOT NULL,
	kind       TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run, kind)
);

CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores an artifact and returns its location as sqlite://<run>/<kind>.
// Saving the same run and kind twice replaces the earlier data.
func (s *SQLiteStore) Save(ctx context.Context, a core.Artifact) (string, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO artifacts (run, kind, data, created_at) VALUES (?, ?, ?, ?)`,
		a.Name, string(a.Kind), a.Data, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert artifact %s/%s", a.Name, a.Kind)
	}
	return Location(a), nil
}

// Location formats the store URI of an artifact.
func Location(a core.Artifact) string {
	return "sqlite://" + a.Name + "/" + string(a.Kind)
}

// Get returns the data of one artifact.
func (s *SQLiteStore) Get(ctx context.Context, run string, kind core.ArtifactKind) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM artifacts WHERE run = ? AND kind = ?`, run, string(kind),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: %s/%s", run, kind)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get artifact")
	}
	return data, nil
}

// Runs lists run names, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run FROM artifacts GROUP BY run ORDER BY MAX(created_at) DESC, run DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}
