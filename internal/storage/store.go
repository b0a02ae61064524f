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
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store is a small blob store holding one markup document and the asset
// registry (logical path → data URL).
type Store interface {
	// Markdown returns the saved markup, or "" when nothing was saved.
	Markdown(ctx context.Context) (string, error)
	SetMarkdown(ctx context.Context, text string) error
	Assets(ctx context.Context) (map[string]string, error)
	// SetAssets replaces the whole registry.
	SetAssets(ctx context.Context, entries map[string]string) error
	// Clear removes the markup and all assets. Snapshots are kept.
	Clear(ctx context.Context) error
	Close() error
}

// Snapshot is one saved version of the markup.
type Snapshot struct {
	TS   time.Time
	Text string
}

// History keeps earlier versions of the markup.
type History interface {
	SaveSnapshot(ctx context.Context, text string, ts time.Time) error
	// LatestSnapshot returns the newest snapshot, ok=false when there is none.
	LatestSnapshot(ctx context.Context) (Snapshot, bool, error)
	// ListSnapshots returns up to limit snapshots, newest first.
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
	// PruneSnapshots keeps the newest keepLast snapshots and reports how many were removed.
	PruneSnapshots(ctx context.Context, keepLast int) (int64, error)
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Options selects and configures a backend.
type Options struct {
	Driver string
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// Backend is what Open returns: every backend keeps a history.
type Backend interface {
	Store
	History
}

// Open connects the backend named by opts.Driver ("sqlite" when empty).
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(ctx, opts.Path)
	case DriverPostgres, "pg", "pgx":
		return OpenPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

const (
	markdownKey     = "content"
	defaultListSize = 50
)
