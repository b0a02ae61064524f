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
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "presentflow.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteMarkdownRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.Markdown(ctx)
	if err != nil || got != "" {
		t.Fatalf("empty store: %q %v", got, err)
	}
	for _, text := range []string{"@title\nFirst", "@title\nSecond\n---\nBody"} {
		if err := s.SetMarkdown(ctx, text); err != nil {
			t.Fatalf("SetMarkdown: %v", err)
		}
		if got, _ := s.Markdown(ctx); got != text {
			t.Fatalf("Markdown = %q, want %q", got, text)
		}
	}
}

func TestSQLiteAssetsReplaceAndClear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.SetAssets(ctx, map[string]string{"a.png": "data:a", "b.png": "data:b"}); err != nil {
		t.Fatalf("SetAssets: %v", err)
	}
	want := map[string]string{"c.png": "data:c"}
	if err := s.SetAssets(ctx, want); err != nil {
		t.Fatalf("SetAssets: %v", err)
	}
	got, err := s.Assets(ctx)
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Fatalf("Assets = %v, %v; want %v", got, err, want)
	}

	_ = s.SetMarkdown(ctx, "text")
	if err := s.SaveSnapshot(ctx, "text", time.Now()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if md, _ := s.Markdown(ctx); md != "" {
		t.Fatalf("markdown survived Clear: %q", md)
	}
	if a, _ := s.Assets(ctx); len(a) != 0 {
		t.Fatalf("assets survived Clear: %v", a)
	}
	if _, ok, _ := s.LatestSnapshot(ctx); !ok {
		t.Fatalf("Clear should keep the history")
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pf.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = s.SetMarkdown(ctx, "kept")
	_ = s.Close()

	reopened, err := Open(ctx, Options{Driver: "SQLite", Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	if md, _ := reopened.Markdown(ctx); md != "kept" {
		t.Fatalf("Markdown after reopen = %q", md)
	}
}

func TestSQLiteSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, ok, err := s.LatestSnapshot(ctx); ok || err != nil {
		t.Fatalf("expected no snapshot, got ok=%v err=%v", ok, err)
	}
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, text := range []string{"v1", "v2", "v3", "v4"} {
		// sub-second offsets must still order correctly as text
		ts := base.Add(time.Duration(i) * 100 * time.Millisecond)
		if err := s.SaveSnapshot(ctx, text, ts); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}
	latest, ok, err := s.LatestSnapshot(ctx)
	if err != nil || !ok || latest.Text != "v4" || !latest.TS.Equal(base.Add(300*time.Millisecond)) {
		t.Fatalf("LatestSnapshot = %+v ok=%v err=%v", latest, ok, err)
	}
	list, err := s.ListSnapshots(ctx, 2)
	if err != nil || len(list) != 2 || list[0].Text != "v4" || list[1].Text != "v3" {
		t.Fatalf("ListSnapshots = %+v, %v", list, err)
	}
	n, err := s.PruneSnapshots(ctx, 1)
	if err != nil || n != 3 {
		t.Fatalf("PruneSnapshots removed %d, err %v", n, err)
	}
	if n, _ := s.PruneSnapshots(ctx, 0); n != 0 {
		t.Fatalf("PruneSnapshots(0) should be a no-op")
	}
	list, _ = s.ListSnapshots(ctx, 0)
	if len(list) != 1 || list[0].Text != "v4" {
		t.Fatalf("after prune: %+v", list)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mongo"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := OpenSQLite(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
