package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	_ "modernc.org/sqlite"
)

// Journal keeps the history of every completed scan in a sqlite database.
type Journal struct {
	db *sql.DB
}

type Entry struct {
	ID         int64                   `json:"id"`
	Supervisor string                  `json:"supervisor"`
	Source     event.Source            `json:"source"`
	OccurredAt time.Time               `json:"occurredAt"`
	Needs      map[consumable.Kind]int `json:"needs"`
}

func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path: %w", consumable.ErrMissingParameter)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			supervisor TEXT NOT NULL,
			source TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			needs_json TEXT NOT NULL
		);`,
	} {
		if _, err = db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("error initializing journal: %w", err)
		}
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Record(ctx context.Context, e event.ScanCompletedEvent) error {
	needs, err := json.Marshal(e.Needs)
	if err != nil {
		return err
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO scans (supervisor, source, occurred_at, needs_json) VALUES (?, ?, ?, ?)",
		e.Supervisor(), string(e.Source), e.OccurredAt().UTC().Format(time.RFC3339Nano), string(needs),
	)
	if err != nil {
		return fmt.Errorf("error recording scan: %w", err)
	}

	return nil
}

// Recent returns the last n scans, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, supervisor, source, occurred_at, needs_json FROM scans ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			source     string
			occurredAt string
			needs      string
		)
		if err = rows.Scan(&e.ID, &e.Supervisor, &source, &occurredAt, &needs); err != nil {
			return nil, err
		}
		e.Source = event.Source(source)
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(needs), &e.Needs); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Handler records ScanCompleted events, any other event is ignored.
func (j *Journal) Handler() event.Handler {
	return func(ctx context.Context, e event.Event) error {
		scan, ok := e.(event.ScanCompletedEvent)
		if !ok {
			return nil
		}

		return j.Record(ctx, scan)
	}
}

func (j *Journal) Close() error {
	return j.db.Close()
}
