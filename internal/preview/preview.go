/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


// Package preview renders slides as terminal markdown for the play and
// watch commands.
package preview

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"

	"presentflow/internal/deck"
	applog "presentflow/internal/log"
	"presentflow/internal/playback"
)

// DefaultWidth is the word-wrap column used when Options.Width is unset.
const DefaultWidth = 80

type Options struct {
	Width int
	// Style names a glamour standard style ("dark", "light", "notty", ...).
	// Empty picks one from the terminal background.
	Style string
}

// Renderer turns slides into styled terminal text.
type Renderer struct {
	tr  *glamour.TermRenderer
	log *slog.Logger
}

func New(opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("init markdown renderer: %w", err)
	}
	return &Renderer{tr: tr, log: applog.WithComponent("preview")}, nil
}

// Slide renders s with its first revealed fragments shown.
func (r *Renderer) Slide(s deck.Slide, revealed int) (string, error) {
	out, err := r.tr.Render(Markdown(s, revealed))
	if err != nil {
		r.log.Warn("render failed", slog.String("kind", kindOf(s)), slog.Any("err", err))
		return "", fmt.Errorf("render slide: %w", err)
	}
	return out, nil
}

// Session renders the current slide of sess followed by a status line.
func (r *Renderer) Session(sess *playback.Session) (string, error) {
	s, c := sess.Current()
	body, err := r.Slide(s, c.Fragments)
	if err != nil {
		return "", err
	}
	status := fmt.Sprintf("%s  %3.0f%%", sess.Position(), sess.Progress())
	if n := playback.FragmentCount(s); n > 0 {
		status += fmt.Sprintf("  [%d/%d]", c.Fragments, n)
	}
	return body + status + "\n", nil
}

func kindOf(s deck.Slide) string {
	if s == nil {
		return "none"
	}
	return s.Kind()
}

// Markdown flattens a slide back to markdown. Hidden fragments are left out.
func Markdown(s deck.Slide, revealed int) string {
	var b strings.Builder
	switch s := s.(type) {
	case nil:
		b.WriteString("*(empty deck)*\n")
	case deck.TitleSlide:
		fmt.Fprintf(&b, "# %s\n", s.Title)
		if s.Subtitle != "" {
			fmt.Fprintf(&b, "\n## %s\n", s.Subtitle)
		}
		for _, line := range []string{s.Author, s.Affiliation, s.Date} {
			if line != "" {
				fmt.Fprintf(&b, "\n%s\n", line)
			}
		}
	case deck.SectionSlide:
		fmt.Fprintf(&b, "# %s\n", s.Title)
	case deck.ErrorSlide:
		fmt.Fprintf(&b, "> **Error:** %s\n", s.Message)
	case deck.ContentSlide:
		w := &writer{b: &b, visible: playback.Visibility(s, revealed)}
		w.nodes(s.Nodes)
	}
	return b.String()
}

type writer struct {
	b       *strings.Builder
	visible []bool
	next    int
}

func (w *writer) block(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if w.b.Len() > 0 {
		w.b.WriteString("\n")
	}
	w.b.WriteString(strings.TrimRight(text, "\n"))
	w.b.WriteString("\n")
}

func (w *writer) nodes(nodes []deck.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case deck.TextNode:
			w.block(numbered(n))
		case deck.ImageNode:
			w.block(fmt.Sprintf("![%s](%s)", n.Src, n.Src))
		case deck.VideoNode:
			w.block(fmt.Sprintf("[video: %s](%s)", n.Src, n.Src))
		case deck.CodeNode:
			code := "```" + n.Language + "\n" + n.Code + "\n```"
			if n.Runnable {
				code += fmt.Sprintf("\n\n*runs as %s*", n.RuntimeLanguage)
			}
			w.block(code)
		case deck.TableNode:
			w.block(table(n.Rows))
		case deck.FragmentNode:
			shown := w.next < len(w.visible) && w.visible[w.next]
			w.next++
			if shown {
				w.block(n.Content)
			}
		case deck.ColumnsNode:
			w.block(strings.Join(n.Columns, "\n\n"))
		case deck.StyledNode:
			w.nodes(n.Children)
		}
	}
}

// numbered rewrites bullets as an ordered list for numeric list classes.
func numbered(n deck.TextNode) string {
	switch n.ListClass {
	case "decimal", "decimal-leading-zero", "lower-alpha", "upper-alpha", "lower-roman", "upper-roman":
	default:
		return n.Content
	}
	lines := strings.Split(n.Content, "\n")
	i := 0
	for k, l := range lines {
		if rest, ok := strings.CutPrefix(l, "- "); ok {
			i++
			lines[k] = fmt.Sprintf("%d. %s", i, rest)
		}
	}
	return strings.Join(lines, "\n")
}

func table(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	line := func(r []string) string {
		cells := make([]string, cols)
		copy(cells, r)
		return "| " + strings.Join(cells, " | ") + " |"
	}
	out := []string{line(rows[0]), "|" + strings.Repeat(" --- |", cols)}
	for _, r := range rows[1:] {
		out = append(out, line(r))
	}
	return strings.Join(out, "\n")
}
