// Package ledger is the local durable record of which (plan, calendar day)
// pairs were completed or skipped, plus the active-plan selection. It answers
// "did I already train today?" without a round trip to Postgres and survives
// restarts. One process owns the file; it is not synchronized across devices.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/models"
	_ "modernc.org/sqlite"
)

// Ledger is backed by a SQLite database at dir/ledger.db.
type Ledger struct {
	db *sql.DB
}

// SkipRecord is the answer to an IsSkipped query.
type SkipRecord struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// Open opens (or creates) the ledger database under dir.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "ledger.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS completions (
		plan_id    TEXT NOT NULL,
		day        TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		skipped    INTEGER NOT NULL DEFAULT 0,
		reason     TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (plan_id, day)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating completions table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings table: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// IsCompleted reports whether the plan was completed on the given day.
// Absence means false, never an error.
func (l *Ledger) IsCompleted(planID uuid.UUID, day time.Time) (bool, error) {
	var completed int
	err := l.db.QueryRow(
		`SELECT completed FROM completions WHERE plan_id = ? AND day = ?`,
		planID.String(), models.DateKey(day),
	).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return completed != 0, nil
}

// IsSkipped reports whether the plan was skipped on the given day, and why.
func (l *Ledger) IsSkipped(planID uuid.UUID, day time.Time) (SkipRecord, error) {
	var skipped int
	var reason string
	err := l.db.QueryRow(
		`SELECT skipped, reason FROM completions WHERE plan_id = ? AND day = ?`,
		planID.String(), models.DateKey(day),
	).Scan(&skipped, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return SkipRecord{}, nil
	}
	if err != nil {
		return SkipRecord{}, err
	}
	return SkipRecord{Skipped: skipped != 0, Reason: reason}, nil
}

// MarkCompleted records a completion. Idempotent: a second call for the same
// (plan, day) changes nothing, and an existing entry is never downgraded.
func (l *Ledger) MarkCompleted(planID uuid.UUID, day time.Time) error {
	_, err := l.db.Exec(
		`INSERT INTO completions (plan_id, day, completed, skipped, reason)
		 VALUES (?, ?, 1, 0, '')
		 ON CONFLICT (plan_id, day) DO NOTHING`,
		planID.String(), models.DateKey(day),
	)
	return err
}

// MarkSkipped records a skip with its reason, replacing any prior entry for
// the same (plan, day). Last write wins on a completed/skipped conflict.
func (l *Ledger) MarkSkipped(planID uuid.UUID, day time.Time, reason string) error {
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO completions (plan_id, day, completed, skipped, reason)
		 VALUES (?, ?, 0, 1, ?)`,
		planID.String(), models.DateKey(day), reason,
	)
	return err
}

const activePlanKey = "active_plan_id"

// ActivePlan returns the selected plan id, or nil when no plan is active.
func (l *Ledger) ActivePlan() (*uuid.UUID, error) {
	var value string
	err := l.db.QueryRow(
		`SELECT value FROM settings WHERE key = ?`, activePlanKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt active plan id %q: %w", value, err)
	}
	return &id, nil
}

// SetActivePlan selects the plan that today's sessions load from.
func (l *Ledger) SetActivePlan(planID uuid.UUID) error {
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		activePlanKey, planID.String(),
	)
	return err
}

// ClearActivePlan deselects the active plan.
func (l *Ledger) ClearActivePlan() error {
	_, err := l.db.Exec(`DELETE FROM settings WHERE key = ?`, activePlanKey)
	return err
}
