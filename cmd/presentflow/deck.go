/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"presentflow/internal/assets"
	"presentflow/internal/deck"
	"presentflow/internal/export"
	"presentflow/internal/playback"
)

//go:embed starter.md
var starterDeck string

func newParseCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the slide tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, slides, err := a.readDeck(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				return export.WriteJSON(cmd.OutOrStdout(), slides)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteJSON(f, slides); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON to this file instead of stdout")
	return cmd
}

func newOutlineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "outline <file>",
		Short: "List slides with their kind, title and fragment count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, slides, err := a.readDeck(args[0])
			if err != nil {
				return err
			}
			writeOutline(cmd.OutOrStdout(), slides)
			return nil
		},
	}
}

func writeOutline(w io.Writer, slides []deck.Slide) {
	for i, s := range slides {
		line := fmt.Sprintf("%3d  %-8s %s", i+1, s.Kind(), slideLabel(s))
		if n := playback.FragmentCount(s); n > 0 {
			line += fmt.Sprintf("  (%d fragments)", n)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// slideLabel is the title of a title or section slide, the first text line
// of a content slide, or the error message.
func slideLabel(s deck.Slide) string {
	switch s := s.(type) {
	case deck.TitleSlide:
		return s.Title
	case deck.SectionSlide:
		return s.Title
	case deck.ErrorSlide:
		return s.Message
	case deck.ContentSlide:
		return firstLine(s.Nodes)
	}
	return ""
}

func firstLine(nodes []deck.Node) string {
	for _, n := range nodes {
		switch n := n.(type) {
		case deck.TextNode:
			for _, l := range strings.Split(n.Content, "\n") {
				if l = strings.TrimSpace(strings.TrimLeft(l, "#")); l != "" {
					return l
				}
			}
		case deck.StyledNode:
			if l := firstLine(n.Children); l != "" {
				return l
			}
		}
	}
	return ""
}

func newHandoutCmd(a *app) *cobra.Command {
	var title, font string
	cmd := &cobra.Command{
		Use:   "handout <file> <out.pdf>",
		Short: "Write a PDF handout with every fragment revealed",
		Long: "Write a PDF handout with every fragment revealed.\n\n" +
			"The built-in PDF fonts only cover Latin (Windows-1252) text. Decks in other\n" +
			"scripts, Cyrillic for example, need --font pointing at a TrueType font.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, slides, err := a.readDeck(args[0])
			if err != nil {
				return err
			}
			reg := a.loadRegistry(cmd)
			opts := export.HandoutOptions{Title: title, Resolver: reg, BaseDir: deckDir(args[0]), FontFile: font}
			if err := export.WriteHandoutFile(args[1], slides, opts); err != nil {
				return err
			}
			a.log.Info("handout written", slog.String("out", args[1]), slog.Int("slides", len(slides)))
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "footer title (defaults to the deck title)")
	cmd.Flags().StringVar(&font, "font", "", "TrueType font for text outside Windows-1252")
	return cmd
}

// loadRegistry fills a registry from the store. A store that can't be
// opened yields an empty registry; images then resolve to local files.
func (a *app) loadRegistry(cmd *cobra.Command) *assets.Registry {
	reg := assets.NewRegistry()
	st, err := a.openStore(cmd.Context())
	if err != nil {
		a.log.Warn("assets unavailable", slog.Any("err", err))
		return reg
	}
	defer st.Close()
	entries, err := st.Assets(cmd.Context())
	if err != nil {
		a.log.Warn("assets unavailable", slog.Any("err", err))
		return reg
	}
	reg.Replace(entries)
	return reg
}

func newNewCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Write a starter deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, []byte(starterDeck), 0o644); err != nil {
				return err
			}
			a.log.Info("starter deck written", slog.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), "Created", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
