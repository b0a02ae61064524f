/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"presentflow/internal/deck"
)

func TestDebouncerRunsLastTriggerOnce(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var runs atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger(func() { runs.Add(1); last.Store(n) })
	}
	time.Sleep(100 * time.Millisecond)
	if runs.Load() != 1 || last.Load() != 5 {
		t.Fatalf("runs=%d last=%d, want one run of the last trigger", runs.Load(), last.Load())
	}
	if d.Pending() {
		t.Fatalf("nothing should be pending after the run")
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var ran atomic.Bool
	d.Trigger(func() { ran.Store(true) })
	if !d.Cancel() {
		t.Fatalf("Cancel should report a pending function")
	}
	if d.Cancel() {
		t.Fatalf("second Cancel should find nothing")
	}
	time.Sleep(60 * time.Millisecond)
	if ran.Load() {
		t.Fatalf("cancelled function ran")
	}
}

type collector struct {
	mu     sync.Mutex
	texts  []string
	slides [][]deck.Slide
	got    chan struct{}
}

func newCollector() *collector { return &collector{got: make(chan struct{}, 16)} }

func (c *collector) deliver(text string, slides []deck.Slide) {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.slides = append(c.slides, slides)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.got:
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery")
	}
}

func TestReparserParsesSettledText(t *testing.T) {
	c := newCollector()
	r := NewReparser(20*time.Millisecond, c.deliver)
	r.Edit("A")
	r.Edit("A\n---")
	r.Edit("A\n---\nB")
	c.wait(t)
	time.Sleep(50 * time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) != 1 || c.texts[0] != "A\n---\nB" {
		t.Fatalf("deliveries = %q", c.texts)
	}
	if len(c.slides[0]) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(c.slides[0]))
	}
}

func TestReparserNowSkipsUnchangedText(t *testing.T) {
	c := newCollector()
	r := NewReparser(time.Hour, c.deliver)
	r.Edit("pending")
	r.Now("X")
	r.Now("X")
	c.wait(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.texts) != 1 || c.texts[0] != "X" {
		t.Fatalf("deliveries = %q", c.texts)
	}
}

func TestWatchPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.md")
	if err := os.WriteFile(path, []byte("One"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newCollector()
	r := NewReparser(50*time.Millisecond, c.deliver)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, r) }()

	c.wait(t) // initial parse
	if err := os.WriteFile(path, []byte("One\n---\nTwo"), 0o644); err != nil {
		t.Fatal(err)
	}
	c.wait(t)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	last := c.slides[len(c.slides)-1]
	if len(last) != 2 {
		t.Fatalf("expected the rewritten file to have 2 slides, got %d", len(last))
	}
}

func TestWatchMissingFile(t *testing.T) {
	r := NewReparser(0, nil)
	if err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope.md"), r); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
