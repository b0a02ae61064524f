/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "presentflow/internal/log"
	"presentflow/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion is the current SQLite layout. Version 1 holds the markup
// and assets; version 2 adds the snapshot history.
const schemaVersion = 2

// SQLiteStore keeps everything in one local database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

var _ Backend = (*SQLiteStore)(nil)

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
}

// OpenSQLite opens or creates the database at path, switches it to WAL and
// brings the schema up to date. A file that is not a usable database is
// moved to a .bak copy and replaced by a fresh one.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := initSQLite(ctx, path)
	if err != nil && isCorrupt(err) {
		bak := backupFile(path)
		l.Warn("database unusable, starting fresh", slog.Any("err", err), slog.String("backup", bak))
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		db, err = initSQLite(ctx, path)
	}
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("store ready")
	return &SQLiteStore{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

func initSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	steps := []func(context.Context, *sql.DB) error{
		func(ctx context.Context, db *sql.DB) error {
			if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
				return fmt.Errorf("enable WAL: %w", err)
			}
			return nil
		},
		ensureVersion,
		ensureBaseSchema,
		runMigrations,
	}
	for _, step := range steps {
		if err := step(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func isCorrupt(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not a database") || strings.Contains(s, "malformed")
}

func backupFile(path string) string {
	bak := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
	return bak
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh databases start at the baseline and migrate forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureBaseSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			text       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assets (
			path     TEXT PRIMARY KEY,
			data_url TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var sqliteMigrations = map[int][]string{
	2: {
		`CREATE TABLE IF NOT EXISTS snapshots (
			id   INTEGER PRIMARY KEY,
			ts   TEXT NOT NULL,
			text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts);`,
	},
}

// runMigrations applies the steps between the stored schema and schemaVersion.
// A database written by a newer build is left alone.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for next := cur + 1; next <= schemaVersion; next++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range sqliteMigrations[next] {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
	}
	return nil
}

// Path is the database file.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// language=SQL
// dialect=SQLite
const upsertDocumentSQL = `INSERT INTO documents(key, text, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET text=excluded.text, updated_at=excluded.updated_at`

func (s *SQLiteStore) Markdown(ctx context.Context) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM documents WHERE key=?`, markdownKey).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}
	return text, nil
}

func (s *SQLiteStore) SetMarkdown(ctx context.Context, text string) error {
	if _, err := s.db.ExecContext(ctx, upsertDocumentSQL, markdownKey, text, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Assets(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, data_url FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("read assets: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]string{}
	for rows.Next() {
		var path, dataURL string
		if err := rows.Scan(&path, &dataURL); err != nil {
			return nil, err
		}
		out[path] = dataURL
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetAssets(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM assets`); err != nil {
		return fmt.Errorf("clear assets: %w", err)
	}
	for path, dataURL := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO assets(path, data_url) VALUES (?, ?)`, path, dataURL); err != nil {
			return fmt.Errorf("insert asset %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Debug("assets saved", slog.Int("count", len(entries)))
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, q := range []string{`DELETE FROM documents`, `DELETE FROM assets`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return tx.Commit()
}
