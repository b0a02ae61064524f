/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package playback walks a parsed deck: it tracks the current slide and how
// many of its fragments are revealed.
//
// All transitions are pure functions of a Cursor and the slide slice.
// Session bundles a cursor with its slides for a single viewer.
package playback

import "presentflow/internal/deck"

// Cursor is a playback position: the slide index and the number of revealed
// fragments on that slide.
type Cursor struct {
	Slide     int `json:"slide"`
	Fragments int `json:"fragments"`
}

// FragmentCount counts the fragments of a slide through all nested styled
// blocks. Non-content slides have none.
func FragmentCount(s deck.Slide) int {
	cs, ok := s.(deck.ContentSlide)
	if !ok {
		return 0
	}
	return countFragments(cs.Nodes)
}

func countFragments(nodes []deck.Node) int {
	n := 0
	for _, node := range nodes {
		switch v := node.(type) {
		case deck.FragmentNode:
			n++
		case deck.StyledNode:
			n += countFragments(v.Children)
		}
	}
	return n
}

func slideAt(slides []deck.Slide, i int) deck.Slide {
	if i < 0 || i >= len(slides) {
		return nil
	}
	return slides[i]
}

// StepForward reveals the next fragment of the current slide, or moves to
// the next slide with nothing revealed. At the end of the deck it is a no-op.
func StepForward(c Cursor, slides []deck.Slide) Cursor {
	if c.Fragments < FragmentCount(slideAt(slides, c.Slide)) {
		c.Fragments++
		return c
	}
	if c.Slide < len(slides)-1 {
		return Cursor{Slide: c.Slide + 1}
	}
	return c
}

// StepBackward hides the last revealed fragment, or moves to the previous
// slide. The previous slide starts with nothing revealed, not fully revealed.
func StepBackward(c Cursor, slides []deck.Slide) Cursor {
	if c.Fragments > 0 {
		c.Fragments--
		return c
	}
	if c.Slide > 0 {
		return Cursor{Slide: c.Slide - 1}
	}
	return c
}

// IsAtStart reports whether c is the first position of any deck.
func IsAtStart(c Cursor) bool { return c.Slide == 0 && c.Fragments == 0 }

// IsAtEnd reports whether c sits on the last slide with all its fragments revealed.
// An empty deck has no end position.
func IsAtEnd(c Cursor, slides []deck.Slide) bool {
	if len(slides) == 0 || c.Slide != len(slides)-1 {
		return false
	}
	return c.Fragments >= FragmentCount(slides[c.Slide])
}

// ResetForNewDocument keeps the slide index where possible after a re-parse
// and hides all fragments.
func ResetForNewDocument(c Cursor, slideCount int) Cursor {
	last := max(0, slideCount-1)
	return Cursor{Slide: min(c.Slide, last)}
}
