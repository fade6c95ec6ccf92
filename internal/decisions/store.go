// Package decisions persists the append-only decision log in SQLite.
//
// Records are inserted and never changed: triggers reject UPDATE and
// DELETE, so the history of every element survives any caller bug. The
// latest record per element, by timestamp and then by append order, is
// the authoritative one.
package decisions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/specgap/internal/model"
	"github.com/HendryAvila/specgap/internal/remediation"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is replaced in tests.
var timeNow = time.Now

var userHomeDir = os.UserHomeDir

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds decision store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration: ~/.specgap, or
// .specgap under the system temp directory when there is no home.
func DefaultConfig() Config {
	home, err := userHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return Config{DataDir: filepath.Join(home, ".specgap")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is a DecisionLog backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

var _ remediation.DecisionLog = (*Store)(nil)

// New opens (or creates) the decision database under cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("decisions: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "decisions.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("decisions: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("decisions: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("decisions: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.cfg.DataDir, "decisions.db")
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS decisions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			element_id TEXT    NOT NULL,
			kind       TEXT    NOT NULL,
			reason     TEXT    NOT NULL DEFAULT '',
			actor      TEXT    NOT NULL DEFAULT '',
			ts         INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_decisions_element ON decisions(element_id, ts DESC, id DESC);

		CREATE TRIGGER IF NOT EXISTS decisions_no_update BEFORE UPDATE ON decisions BEGIN
			SELECT RAISE(ABORT, 'decisions are append-only');
		END;

		CREATE TRIGGER IF NOT EXISTS decisions_no_delete BEFORE DELETE ON decisions BEGIN
			SELECT RAISE(ABORT, 'decisions are append-only');
		END;
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── DecisionLog ─────────────────────────────────────────────────────────────

// Append implements remediation.DecisionLog.
func (s *Store) Append(ctx context.Context, d model.Decision) (model.Decision, error) {
	if err := remediation.ValidateDecision(d); err != nil {
		return model.Decision{}, err
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = timeNow()
	}
	d.Timestamp = d.Timestamp.UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (element_id, kind, reason, actor, ts) VALUES (?, ?, ?, ?, ?)`,
		d.ElementID, string(d.Kind), d.Reason, d.Actor, d.Timestamp.UnixNano(),
	)
	if err != nil {
		return model.Decision{}, fmt.Errorf("decisions: append: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Decision{}, fmt.Errorf("decisions: append: %w", err)
	}
	d.ID = id
	return d, nil
}

// Latest implements remediation.DecisionLog.
func (s *Store) Latest(ctx context.Context, elementID string) (model.Decision, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, element_id, kind, reason, actor, ts FROM decisions
		 WHERE element_id = ? ORDER BY ts DESC, id DESC LIMIT 1`, elementID)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Decision{}, false, nil
	}
	if err != nil {
		return model.Decision{}, false, fmt.Errorf("decisions: latest %s: %w", elementID, err)
	}
	return d, true, nil
}

// History implements remediation.DecisionLog.
func (s *Store) History(ctx context.Context, elementID string) ([]model.Decision, error) {
	return s.query(ctx,
		`SELECT id, element_id, kind, reason, actor, ts FROM decisions
		 WHERE element_id = ? ORDER BY id`, elementID)
}

// All implements remediation.DecisionLog.
func (s *Store) All(ctx context.Context) ([]model.Decision, error) {
	return s.query(ctx, `SELECT id, element_id, kind, reason, actor, ts FROM decisions ORDER BY id`)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(sc scanner) (model.Decision, error) {
	var (
		d    model.Decision
		kind string
		ts   int64
	)
	if err := sc.Scan(&d.ID, &d.ElementID, &kind, &d.Reason, &d.Actor, &ts); err != nil {
		return model.Decision{}, err
	}
	d.Kind = model.DecisionKind(kind)
	d.Timestamp = time.Unix(0, ts).UTC()
	return d, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]model.Decision, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("decisions: query: %w", err)
	}
	defer rows.Close()

	var out []model.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("decisions: scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("decisions: query: %w", err)
	}
	return out, nil
}
