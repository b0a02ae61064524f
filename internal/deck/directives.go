/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deck

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	reTableDivider = regexp.MustCompile(`^\s*\|[-|\s]+\|\s*$`)
	reTitleDate    = regexp.MustCompile(`\\date\{([^}]*)\}`)
	reHeadingMarks = regexp.MustCompile(`^#+\s*`)
)

// parseImage reads "@image <src> [width=N] [height=N]". Unknown keys and
// values without leading digits are ignored.
func parseImage(header string) ImageNode {
	parts := strings.Fields(strings.TrimPrefix(header, "@image"))
	var n ImageNode
	if len(parts) == 0 {
		return n
	}
	n.Src = parts[0]
	for _, p := range parts[1:] {
		key, value, _ := strings.Cut(p, "=")
		v, ok := leadingInt(value)
		if !ok {
			continue
		}
		switch key {
		case "width":
			n.Width = v
		case "height":
			n.Height = v
		}
	}
	return n
}

// leadingInt parses the base-10 integer prefix of s ("120px" -> 120).
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseCode reads "@code [<lang>] [editable] [run=<lang>]" and keeps the body verbatim.
func parseCode(header string, body []string) CodeNode {
	n := CodeNode{Code: strings.Join(body, "\n")}
	var lang string
	for _, p := range strings.Fields(strings.TrimPrefix(header, "@code")) {
		switch {
		case p == "editable":
			n.Editable = true
		case strings.HasPrefix(p, "run="):
			if !n.Runnable {
				n.Runnable = true
				n.RuntimeLanguage = strings.TrimPrefix(p, "run=")
			}
		case lang == "":
			lang = p
		}
	}
	if lang == "" {
		lang = n.RuntimeLanguage
	}
	if lang == "" {
		lang = "text"
	}
	n.Language = lang
	return n
}

// parseTable keeps pipe rows, skipping markdown header dividers.
func parseTable(header string, body []string) TableNode {
	n := TableNode{
		Borderless: slices.Contains(strings.Fields(strings.TrimPrefix(header, "@table")), "noborder"),
		Rows:       [][]string{},
	}
	for _, l := range body {
		if !strings.HasPrefix(strings.TrimSpace(l), "|") || reTableDivider.MatchString(l) {
			continue
		}
		pieces := strings.Split(l, "|")
		pieces = pieces[1 : len(pieces)-1]
		row := make([]string, len(pieces))
		for i, c := range pieces {
			row[i] = strings.TrimSpace(c)
		}
		n.Rows = append(n.Rows, row)
	}
	return n
}

// parseColumns splits the body at "@column" lines. Every non-empty span of
// lines becomes a column, including one preceding the first marker.
func parseColumns(body []string) ColumnsNode {
	n := ColumnsNode{Columns: []string{}}
	var cur []string
	push := func() {
		if len(cur) > 0 {
			n.Columns = append(n.Columns, strings.Join(cur, "\n"))
		}
		cur = nil
	}
	for _, l := range body {
		if strings.TrimSpace(l) == "@column" {
			push()
			continue
		}
		cur = append(cur, l)
	}
	push()
	return n
}

// parseTitle builds a title slide from the lines following "@title".
//
// Fields are assigned by position among the collected non-style lines:
// one line is the title; two lines are title and author; three lines are
// title, subtitle and author; a fourth line is the affiliation. A
// three-line block can't tell a subtitle from an author any other way.
func parseTitle(lines []string) TitleSlide {
	var collected, styleLines []string
	var date string
	for _, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, `\date{`):
			date = ""
			if m := reTitleDate.FindStringSubmatch(line); m != nil {
				date = m[1]
			}
		case IsStyleLine(t):
			styleLines = append(styleLines, t)
		case t != "":
			if strings.HasPrefix(line, "#") {
				t = strings.TrimSpace(reHeadingMarks.ReplaceAllString(line, ""))
			}
			collected = append(collected, t)
		}
	}

	s := TitleSlide{Date: date, Style: ParseStyle(styleLines)}
	switch l := len(collected); {
	case l >= 3:
		s.Subtitle = collected[1]
		s.Author = collected[2]
		if l >= 4 {
			s.Affiliation = collected[3]
		}
	case l == 2:
		s.Author = collected[1]
	}
	if len(collected) > 0 {
		s.Title = collected[0]
	}
	return s
}

// parseSection builds a section slide; every line after the header is
// offered to the style grammar.
func parseSection(header string, rest []string) SectionSlide {
	return SectionSlide{
		Title: strings.TrimSpace(strings.TrimPrefix(header, "@section ")),
		Style: ParseStyle(rest),
	}
}
