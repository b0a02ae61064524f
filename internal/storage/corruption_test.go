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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenSQLiteReplacesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presentflow.db")
	if err := os.WriteFile(path, []byte("THIS IS NOT SQLITE, JUST SOME TEXT THAT IS LONG ENOUGH FOR A HEADER CHECK....."), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite on corrupt file: %v", err)
	}
	defer s.Close()
	if err := s.SetMarkdown(context.Background(), "fresh"); err != nil {
		t.Fatalf("fresh database unusable: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	var backups int
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".bak") {
			backups++
		}
	}
	if backups != 1 {
		t.Fatalf("expected one backup of the corrupt file, found %d", backups)
	}
}
