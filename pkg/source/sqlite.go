// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Source backed by a local SQLite database.
//
// Every write bumps a generation counter in the same transaction, so a
// poll-based notifier can detect changes made by other processes (for
// example the tracetag CLI) with a single cheap query.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and runs
// migrations. WAL mode keeps concurrent readers cheap.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	connStr := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// migrate creates the database schema.
func (s *SQLite) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			value INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,

		`INSERT INTO meta (key, value) VALUES ('generation', 0)
			ON CONFLICT(key) DO NOTHING`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadAll returns all entries in insertion (rowid) order.
func (s *SQLite) LoadAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Value); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}
	return entries, nil
}

// Load returns the named entry. Name comparison is case-insensitive
// (NOCASE collation on the name column).
func (s *SQLite) Load(ctx context.Context, name string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT name, value FROM tags WHERE name = ?`, name).
		Scan(&e.Name, &e.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query tag %q: %w", name, err)
	}
	return e, nil
}

// Persist replaces the stored entry set with entries, in order, and
// bumps the generation counter in the same transaction.
func (s *SQLite) Persist(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin persist: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tags`); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name, value) VALUES (?, ?)`,
			e.Name, e.Value); err != nil {
			return fmt.Errorf("insert tag %q: %w", e.Name, err)
		}
	}
	if err := bumpGeneration(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Set upserts a single entry and bumps the generation counter.
func (s *SQLite) Set(ctx context.Context, name string, value int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tags (name, value) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET
				value = excluded.value,
				updated_at = datetime('now')`,
		name, value); err != nil {
		return fmt.Errorf("set tag %q: %w", name, err)
	}
	if err := bumpGeneration(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Version returns the current generation counter. It changes whenever
// any writer (this process or another) modifies the tag set.
func (s *SQLite) Version(ctx context.Context) (string, error) {
	var gen int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'generation'`).Scan(&gen)
	if err != nil {
		return "", fmt.Errorf("query generation: %w", err)
	}
	return strconv.FormatInt(gen, 10), nil
}

func bumpGeneration(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE meta SET value = value + 1 WHERE key = 'generation'`); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}
