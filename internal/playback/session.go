/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"presentflow/internal/deck"
	applog "presentflow/internal/log"
)

// Session is one viewer's playback of a deck. Two sessions over the same
// slides keep independent cursors. Methods are safe for concurrent use so a
// re-parse may replace the slides while the viewer steps.
type Session struct {
	id     string
	log    *slog.Logger
	mu     sync.Mutex
	slides []deck.Slide
	cur    Cursor
}

// NewSession starts playback of slides at the first position.
func NewSession(slides []deck.Slide) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		log:    applog.WithComponent("playback").With(slog.String("session", id)),
		slides: slides,
	}
}

func (s *Session) ID() string { return s.id }

// Load replaces the slides after a new parse. The slide index is clamped to
// the new deck and all fragments are hidden again.
func (s *Session) Load(slides []deck.Slide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cur
	s.slides = slides
	s.cur = ResetForNewDocument(prev, len(slides))
	s.log.Debug("slides replaced", slog.Int("slides", len(slides)), slog.Int("from", prev.Slide), slog.Int("to", s.cur.Slide))
}

func (s *Session) Next() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = StepForward(s.cur, s.slides)
	return s.cur
}

func (s *Session) Prev() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = StepBackward(s.cur, s.slides)
	return s.cur
}

func (s *Session) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Current returns the slide under the cursor (nil for an empty deck) and the cursor.
func (s *Session) Current() (deck.Slide, Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slideAt(s.slides, s.cur.Slide), s.cur
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slides)
}

func (s *Session) AtStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return IsAtStart(s.cur)
}

func (s *Session) AtEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return IsAtEnd(s.cur, s.slides)
}

// Position is the one-based "current / total" counter.
func (s *Session) Position() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%d / %d", s.cur.Slide+1, len(s.slides))
}

// Progress is the share of the deck passed, in percent. Single-slide decks
// are always complete.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slides) <= 1 {
		return 100
	}
	return float64(s.cur.Slide) / float64(len(s.slides)-1) * 100
}
