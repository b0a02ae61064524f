/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestInitWritesJSONFile checks the rotated file sink and the static,
// component and context attributes.
func TestInitWritesJSONFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "presentflow.log")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Output: &console})

	l := WithOperation(WithComponent("deck"), "parse")
	ctx := ContextWith(context.Background(), slog.String("file", "talk.md"))
	l.InfoContext(ctx, "parsed", slog.Int("slides", 3))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines in %s", fpath)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "presentflow" {
		t.Fatalf("app attr = %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "deck" || m["op"] != "parse" {
		t.Fatalf("component/op mismatch: %v / %v", m["component"], m["op"])
	}
	if m["file"] != "talk.md" {
		t.Fatalf("context attr missing: %v", m["file"])
	}
	if m["slides"] != float64(3) {
		t.Fatalf("slides attr = %v", m["slides"])
	}
	if !strings.Contains(console.String(), `"msg":"parsed"`) {
		t.Fatalf("console sink missed the record: %q", console.String())
	}
}

func TestConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Output: &buf})
	WithComponent("editor").Info("hidden")
	WithComponent("editor").Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record passed a warn filter: %q", out)
	}
	if !strings.Contains(out, "WRN shown") || !strings.Contains(out, "component=editor") {
		t.Fatalf("unexpected console output: %q", out)
	}
}
