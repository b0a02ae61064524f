/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"
	"sync"
	"time"

	"presentflow/internal/deck"
	applog "presentflow/internal/log"
)

// DeliverFunc receives the source text and the slides parsed from it.
type DeliverFunc func(text string, slides []deck.Slide)

// Reparser parses the latest edit after the debounce delay and hands the
// result to a single consumer. Deliveries never overlap.
type Reparser struct {
	deb     *Debouncer
	deliver DeliverFunc
	log     *slog.Logger

	mu   sync.Mutex // serializes deliveries
	last string
}

func NewReparser(delay time.Duration, deliver DeliverFunc) *Reparser {
	return &Reparser{
		deb:     NewDebouncer(delay),
		deliver: deliver,
		log:     applog.WithComponent("editor"),
	}
}

// Edit records new text. The parse happens once edits settle.
func (r *Reparser) Edit(text string) {
	r.deb.Trigger(func() { r.run(text) })
}

// Now parses text immediately and drops any pending edit.
func (r *Reparser) Now(text string) {
	r.deb.Cancel()
	r.run(text)
}

// Cancel drops a pending edit without parsing it.
func (r *Reparser) Cancel() { r.deb.Cancel() }

func (r *Reparser) run(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if text == r.last {
		r.log.Debug("text unchanged, parse skipped")
		return
	}
	start := time.Now()
	slides := deck.Parse(text)
	r.last = text
	r.log.Debug("reparsed", slog.Int("slides", len(slides)), slog.Duration("took", time.Since(start)))
	if r.deliver != nil {
		r.deliver(text, slides)
	}
}
