/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import (
	"testing"

	"presentflow/internal/deck"
)

func TestSessionStepsAndReloads(t *testing.T) {
	slides := deck.Parse("One\n---\nTwo\n@fragment\nx\n@end\n---\nThree")
	s := NewSession(slides)
	if s.ID() == "" {
		t.Fatalf("session id is empty")
	}
	if !s.AtStart() || s.Position() != "1 / 3" || s.Progress() != 0 {
		t.Fatalf("unexpected start state: %s %.1f", s.Position(), s.Progress())
	}
	s.Next()
	s.Next()
	if c := s.Cursor(); c != (Cursor{Slide: 1, Fragments: 1}) {
		t.Fatalf("cursor = %+v", c)
	}
	if s.Progress() != 50 {
		t.Fatalf("progress = %.1f", s.Progress())
	}
	s.Next()
	if !s.AtEnd() {
		t.Fatalf("expected end")
	}

	// the new deck is shorter; the cursor is clamped
	s.Load(deck.Parse("Only\n@fragment\ny\n@end"))
	slide, c := s.Current()
	if c != (Cursor{}) || slide == nil || s.Len() != 1 {
		t.Fatalf("after reload: %+v %v", c, slide)
	}
	if s.Progress() != 100 {
		t.Fatalf("single slide progress = %.1f", s.Progress())
	}
	s.Next()
	if s.Prev() != (Cursor{}) {
		t.Fatalf("prev should hide the fragment")
	}
}

func TestSessionsDoNotShareCursors(t *testing.T) {
	slides := deck.Parse("A\n---\nB")
	a, b := NewSession(slides), NewSession(slides)
	a.Next()
	if b.Cursor() != (Cursor{}) {
		t.Fatalf("second session moved with the first")
	}
	if a.ID() == b.ID() {
		t.Fatalf("session ids collide")
	}
}

func TestEmptySession(t *testing.T) {
	s := NewSession(nil)
	if slide, _ := s.Current(); slide != nil {
		t.Fatalf("expected nil slide")
	}
	s.Next()
	if s.Cursor() != (Cursor{}) || s.AtEnd() {
		t.Fatalf("empty deck should stay at start")
	}
}
