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
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	applog "presentflow/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore shares one deck between machines through a PostgreSQL database.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Backend = (*PostgresStore)(nil)

// OpenPostgres connects to dsn, pings the server and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required (set PF_PG_DSN)")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	l := applog.WithComponent("storage")
	if err := applyMigrations(ctx, db, l); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresStore{db: db, log: l}, nil
}

func applyMigrations(ctx context.Context, db *sql.DB, l *slog.Logger) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS pf_schema_migrations (
		version    BIGINT PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure pf_schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM pf_schema_migrations`)
	if err != nil {
		return fmt.Errorf("select pf_schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		v, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[v] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO pf_schema_migrations(version, name) VALUES ($1, $2)`, v, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

// parseVersion reads the numeric prefix of a migration file name ("0002_x.sql" → 2).
func parseVersion(name string) (int64, error) {
	prefix, _, _ := strings.Cut(path.Base(name), "_")
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) Markdown(ctx context.Context) (string, error) {
	var text string
	err := p.db.QueryRowContext(ctx, `SELECT text FROM pf_documents WHERE key=$1`, markdownKey).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}
	return text, nil
}

func (p *PostgresStore) SetMarkdown(ctx context.Context, text string) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO pf_documents(key, text, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET text=EXCLUDED.text, updated_at=EXCLUDED.updated_at`, markdownKey, text)
	if err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func (p *PostgresStore) Assets(ctx context.Context) (map[string]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT path, data_url FROM pf_assets`)
	if err != nil {
		return nil, fmt.Errorf("read assets: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (p *PostgresStore) SetAssets(ctx context.Context, entries map[string]string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM pf_assets`); err != nil {
		return fmt.Errorf("clear assets: %w", err)
	}
	for k, v := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO pf_assets(path, data_url) VALUES ($1, $2)`, k, v); err != nil {
			return fmt.Errorf("insert asset %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `TRUNCATE pf_documents, pf_assets`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (p *PostgresStore) SaveSnapshot(ctx context.Context, text string, ts time.Time) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO pf_snapshots(ts, text) VALUES ($1, $2)`, ts.UTC(), text)
	return err
}

func (p *PostgresStore) LatestSnapshot(ctx context.Context) (Snapshot, bool, error) {
	var s Snapshot
	err := p.db.QueryRowContext(ctx, `SELECT ts, text FROM pf_snapshots ORDER BY ts DESC, id DESC LIMIT 1`).Scan(&s.TS, &s.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

func (p *PostgresStore) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = defaultListSize
	}
	rows, err := p.db.QueryContext(ctx, `SELECT ts, text FROM pf_snapshots ORDER BY ts DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.TS, &s.Text); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) PruneSnapshots(ctx context.Context, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM pf_snapshots WHERE id NOT IN (
		SELECT id FROM pf_snapshots ORDER BY ts DESC, id DESC LIMIT $1
	)`, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
