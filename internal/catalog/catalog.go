// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a SQLite ledger of install runs, the source files
// each run decoded and the repository records they produced. The
// repository files stay the source of truth; the catalog answers "what is
// installed and where did it come from" and lets repeated installs skip
// sources whose content has not changed.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/pkg/types"
)

// Catalog manages the install catalog database.
type Catalog struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the catalog database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.CatalogConfig) (*Catalog, error) {
	if cfg.Path == "" {
		return nil, errors.New("catalog path is not set")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating catalog directory")
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	c := &Catalog{db: db, path: cfg.Path, now: time.Now}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path returns the database file.
func (c *Catalog) Path() string { return c.path }

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT NOT NULL,
			finished TEXT,
			installed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			path TEXT NOT NULL,
			target TEXT NOT NULL,
			dialect TEXT NOT NULL,
			digest TEXT NOT NULL,
			failed INTEGER NOT NULL DEFAULT 0,
			run_id TEXT NOT NULL REFERENCES runs(id),
			installed_at TEXT NOT NULL,
			PRIMARY KEY (path, target)
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			file TEXT NOT NULL,
			record_key TEXT NOT NULL,
			class TEXT NOT NULL,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id),
			PRIMARY KEY (file, record_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_class ON records(class)`,
		`CREATE INDEX IF NOT EXISTS idx_records_source ON records(source)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// Digest returns the xxhash64 of the file at path as 16 hex digits.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Run is one install invocation.
type Run struct {
	ID        string     `json:"id" yaml:"id"`
	Started   time.Time  `json:"started" yaml:"started"`
	Finished  *time.Time `json:"finished,omitempty" yaml:"finished,omitempty"`
	Installed int        `json:"installed" yaml:"installed"`
	Skipped   int        `json:"skipped" yaml:"skipped"`
	Failed    int        `json:"failed" yaml:"failed"`
}

// BeginRun records the start of run id.
func (c *Catalog) BeginRun(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs (id, started) VALUES (?, ?)`, id, c.timestamp())
	if err != nil {
		return errors.Wrapf(err, "recording run %s", id)
	}
	return nil
}

// FinishRun stores the outcome counts of run id.
func (c *Catalog) FinishRun(ctx context.Context, id string, installed, skipped, failed int) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished = ?, installed = ?, skipped = ?, failed = ? WHERE id = ?`,
		c.timestamp(), installed, skipped, failed, id)
	if err != nil {
		return errors.Wrapf(err, "finishing run %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("run %s was never started", id)
	}
	return nil
}

// Runs returns every run, most recent first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, started, finished, installed, skipped, failed FROM runs ORDER BY started DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Installed, &r.Skipped, &r.Failed); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			t, _ := time.Parse(time.RFC3339Nano, finished.String)
			r.Finished = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Unchanged reports whether source was last installed for target with the
// same digest and nothing from it failed.
func (c *Catalog) Unchanged(ctx context.Context, source, target, digest string) (bool, error) {
	var (
		stored string
		failed int
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT digest, failed FROM sources WHERE path = ? AND target = ?`, source, target,
	).Scan(&stored, &failed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, errors.Wrapf(err, "looking up %s", source)
	}
	return stored == digest && failed == 0, nil
}

// Source describes one decoded source file. Failed counts the requested
// records that could not be installed from it.
type Source struct {
	Path    string
	Target  string
	Dialect string
	Digest  string
	Failed  int
}

// Record is one repository record written from a source.
type Record struct {
	Class string
	File  string
	Key   string
}

// Installed records that run installed records from src. Records already
// attributed to another source move to src.
func (c *Catalog) Installed(ctx context.Context, runID string, src Source, records []Record) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (path, target, dialect, digest, failed, run_id, installed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path, target) DO UPDATE SET
			dialect=excluded.dialect, digest=excluded.digest, failed=excluded.failed,
			run_id=excluded.run_id, installed_at=excluded.installed_at`,
		src.Path, src.Target, src.Dialect, src.Digest, src.Failed, runID, c.timestamp())
	if err != nil {
		return errors.Wrapf(err, "upserting source %s", src.Path)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (file, record_key, class, source, target, run_id) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file, record_key) DO UPDATE SET
			class=excluded.class, source=excluded.source,
			target=excluded.target, run_id=excluded.run_id`)
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.File, r.Key, r.Class, src.Path, src.Target, runID); err != nil {
			return errors.Wrapf(err, "inserting record %s[%s]", r.File, r.Key)
		}
	}
	return tx.Commit()
}

func (c *Catalog) timestamp() string {
	return c.now().UTC().Format(time.RFC3339Nano)
}
