/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package deck parses the slide deck markup into a tree of typed slides.
//
// A deck is plain text. Lines of exactly "---" separate slides; lines
// starting with a directive (@title, @section, @image, @table, @code,
// @fragment, @style, @columns) open typed blocks closed by "@end".
// Everything else is markdown text handed to the renderer unchanged.
package deck

import (
	"fmt"
	"log/slog"
	"strings"

	applog "presentflow/internal/log"
)

// Parse converts deck markup into slides. It never fails: a structural fault
// anywhere yields a single ErrorSlide instead of a partial deck.
func Parse(text string) (slides []Slide) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			slides = []Slide{faultSlide(err)}
		}
	}()

	slides = []Slide{}
	for _, group := range splitGroups(text) {
		slide, err := buildSlide(group)
		if err != nil {
			return []Slide{faultSlide(err)}
		}
		if slide != nil {
			slides = append(slides, slide)
		}
	}
	return slides
}

func faultSlide(err error) ErrorSlide {
	msg := "parse error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	applog.WithComponent("deck").Warn("deck parse failed", slog.String("err", msg))
	return ErrorSlide{Message: msg}
}

// buildSlide dispatches one non-empty group on its first non-blank line.
// It returns a nil slide for content groups that produce no nodes.
func buildSlide(group []string) (Slide, error) {
	first, at := "", -1
	for i, l := range group {
		if t := strings.TrimSpace(l); t != "" {
			first, at = t, i
			break
		}
	}
	if at < 0 {
		return nil, nil
	}

	switch {
	case first == "@title":
		return parseTitle(group[at+1:]), nil
	case strings.HasPrefix(first, "@section "):
		return parseSection(first, group[at+1:]), nil
	}

	sc := newScanner(group)
	nodes, _ := sc.scanNodes(false)
	if sc.err != nil {
		return nil, sc.err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return ContentSlide{Nodes: nodes}, nil
}
