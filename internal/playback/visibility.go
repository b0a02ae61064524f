/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import "presentflow/internal/deck"

// FragmentFunc receives every fragment of a slide in reveal order together
// with its zero-based position and whether it is currently visible.
type FragmentFunc func(f deck.FragmentNode, index int, visible bool)

// WalkFragments visits the fragments of nodes depth-first with visible
// fragments revealed. It returns the number of fragments visited.
func WalkFragments(nodes []deck.Node, visible int, fn FragmentFunc) int {
	return walk(nodes, visible, 0, fn)
}

// walk threads the running fragment position through the recursion; one
// counter spans the whole slide, it is never reset per container.
func walk(nodes []deck.Node, visible, seen int, fn FragmentFunc) int {
	for _, node := range nodes {
		switch v := node.(type) {
		case deck.FragmentNode:
			if fn != nil {
				fn(v, seen, seen < visible)
			}
			seen++
		case deck.StyledNode:
			seen = walk(v.Children, visible, seen, fn)
		}
	}
	return seen
}

// Visibility lists, in reveal order, whether each fragment of s is shown
// when visible fragments are revealed.
func Visibility(s deck.Slide, visible int) []bool {
	cs, ok := s.(deck.ContentSlide)
	if !ok {
		return nil
	}
	var out []bool
	WalkFragments(cs.Nodes, visible, func(_ deck.FragmentNode, _ int, shown bool) {
		out = append(out, shown)
	})
	return out
}
