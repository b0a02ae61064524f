/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deck

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxNesting bounds how deeply @style blocks may nest.
const MaxNesting = 64

var (
	reSlideSeparator = regexp.MustCompile(`^\s*---\s*$`)
	reBlockEnd       = regexp.MustCompile(`^\s*@end\s*$`)
	reListDirective  = regexp.MustCompile(`^\\list\s+(\S+)\s*$`)
)

// splitGroups cuts text into slide groups at separator lines and drops
// groups that hold nothing but whitespace.
func splitGroups(text string) [][]string {
	groups := [][]string{nil}
	for _, line := range strings.Split(text, "\n") {
		if reSlideSeparator.MatchString(line) {
			groups = append(groups, nil)
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], line)
	}
	out := groups[:0]
	for _, g := range groups {
		if strings.TrimSpace(strings.Join(g, "\n")) != "" {
			out = append(out, g)
		}
	}
	return out
}

// scanner walks the lines of one slide group and emits nodes.
type scanner struct {
	lines []string
	pos   int
	depth int
	err   error
}

func newScanner(lines []string) *scanner { return &scanner{lines: lines} }

// scanNodes emits nodes until the lines run out. Inside a @style body it
// also stops after the @end line of its own level and hands back the style
// lines it siphoned off, including those of fragments directly in the body.
func (s *scanner) scanNodes(styleBody bool) ([]Node, []string) {
	var (
		nodes      []Node
		styleLines []string
		text       []string
		listClass  string
	)
	flush := func() {
		if content := strings.TrimSpace(strings.Join(text, "\n")); content != "" {
			nodes = append(nodes, TextNode{Content: content, ListClass: listClass})
		}
		text = text[:0]
	}

	for s.pos < len(s.lines) && s.err == nil {
		line := s.lines[s.pos]
		if styleBody {
			if reBlockEnd.MatchString(line) {
				s.pos++
				break
			}
			if IsStyleLine(line) {
				styleLines = append(styleLines, strings.TrimSpace(line))
				s.pos++
				continue
			}
		}
		if m := reListDirective.FindStringSubmatch(line); m != nil {
			flush()
			listClass = m[1]
			s.pos++
			continue
		}
		if styleBody && strings.HasPrefix(line, "@fragment") {
			flush()
			listClass = ""
			var content []string
			for _, l := range s.body() {
				if IsStyleLine(l) {
					styleLines = append(styleLines, strings.TrimSpace(l))
					continue
				}
				content = append(content, l)
			}
			nodes = append(nodes, FragmentNode{Content: strings.Join(content, "\n")})
			continue
		}
		if n, ok := s.directive(line); ok {
			flush()
			listClass = ""
			nodes = append(nodes, n)
			continue
		}
		text = append(text, line)
		s.pos++
	}
	flush()
	return nodes, styleLines
}

// directive parses the block opened by line, if any, and advances past it.
func (s *scanner) directive(line string) (Node, bool) {
	switch {
	case strings.HasPrefix(line, "@image "):
		s.pos++
		return parseImage(line), true
	case strings.HasPrefix(line, "@table"):
		return parseTable(line, s.body()), true
	case strings.HasPrefix(line, "@code"):
		return parseCode(line, s.body()), true
	case strings.HasPrefix(line, "@fragment"):
		return FragmentNode{Content: strings.Join(s.body(), "\n")}, true
	case strings.TrimSpace(line) == "@style":
		return s.styled(), true
	case strings.HasPrefix(line, "@columns"):
		return parseColumns(s.body()), true
	}
	return nil, false
}

// body consumes a directive line, its body and the closing @end. A missing
// @end closes the block at the end of the group.
func (s *scanner) body() []string {
	s.pos++
	start := s.pos
	for s.pos < len(s.lines) && !reBlockEnd.MatchString(s.lines[s.pos]) {
		s.pos++
	}
	body := s.lines[start:s.pos]
	if s.pos < len(s.lines) {
		s.pos++
	}
	return body
}

func (s *scanner) styled() Node {
	if s.depth >= MaxNesting {
		s.err = fmt.Errorf("line %d: @style nested deeper than %d levels", s.pos+1, MaxNesting)
		s.pos = len(s.lines)
		return StyledNode{}
	}
	s.pos++
	s.depth++
	children, styleLines := s.scanNodes(true)
	s.depth--
	return StyledNode{Style: ParseStyle(styleLines), Children: children}
}
