/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"presentflow/internal/deck"
	"presentflow/internal/editor"
	applog "presentflow/internal/log"
	"presentflow/internal/playback"
	"presentflow/internal/preview"
)

type previewFlags struct {
	width int
	style string
}

func (f *previewFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.width, "width", preview.DefaultWidth, "word-wrap column")
	cmd.Flags().StringVar(&f.style, "style", "", "glamour style (dark, light, notty, ...); empty detects the terminal")
}

func (f *previewFlags) renderer() (*preview.Renderer, error) {
	return preview.New(preview.Options{Width: f.width, Style: f.style})
}

const playHelp = "keys: [enter]/n next, p previous, g <n> go to slide, r reload, q quit"

func newPlayCmd(a *app) *cobra.Command {
	var pf previewFlags
	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Step through a deck in the terminal",
		Long:  "Step through a deck in the terminal, one fragment at a time.\n" + playHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, slides, err := a.readDeck(args[0])
			if err != nil {
				return err
			}
			r, err := pf.renderer()
			if err != nil {
				return err
			}
			sess := playback.NewSession(slides)
			ctx := applog.ContextWith(cmd.Context(), slog.String("session", sess.ID()))
			a.log.InfoContext(ctx, "playback started", slog.Int("slides", sess.Len()))
			reload := func() error {
				if args[0] == "-" {
					return nil
				}
				_, slides, err := a.readDeck(args[0])
				if err != nil {
					return err
				}
				sess.Load(slides)
				return nil
			}
			return play(cmd.OutOrStdout(), a.in, r, sess, reload)
		},
	}
	pf.register(cmd)
	return cmd
}

// play renders sess and applies one command per input line until quit or EOF.
func play(w io.Writer, in io.Reader, r *preview.Renderer, sess *playback.Session, reload func() error) error {
	show := func() error {
		out, err := r.Session(sess)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	if err := show(); err != nil {
		return err
	}
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		switch cmd {
		case "", "n", "next":
			if sess.AtEnd() {
				fmt.Fprintln(w, "(end of deck)")
				continue
			}
			sess.Next()
		case "p", "prev":
			if sess.AtStart() {
				fmt.Fprintln(w, "(start of deck)")
				continue
			}
			sess.Prev()
		case "g", "go":
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil || n < 1 || n > sess.Len() {
				fmt.Fprintf(w, "no slide %q\n", arg)
				continue
			}
			for sess.Cursor().Slide < n-1 {
				sess.Next()
			}
			for sess.Cursor().Slide > n-1 || sess.Cursor().Fragments > 0 {
				sess.Prev()
			}
		case "r", "reload":
			if err := reload(); err != nil {
				fmt.Fprintln(w, "reload failed:", err)
				continue
			}
		case "q", "quit":
			return nil
		default:
			fmt.Fprintln(w, playHelp)
			continue
		}
		if err := show(); err != nil {
			return err
		}
	}
	return sc.Err()
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		pf   previewFlags
		keep int
		save bool
	)
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a deck whenever the file changes",
		Long: "Re-render a deck whenever the file changes. Each settled version is saved\n" +
			"to the store and kept as a snapshot.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := pf.renderer()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var persist func(string)
			if save {
				st, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				persist = func(text string) {
					// the watch context may already be cancelled
					bg := context.WithoutCancel(ctx)
					if err := st.SetMarkdown(bg, text); err != nil {
						a.log.Warn("save markdown failed", slog.Any("err", err))
						return
					}
					if err := st.SaveSnapshot(bg, text, time.Now().UTC()); err != nil {
						a.log.Warn("save snapshot failed", slog.Any("err", err))
						return
					}
					if n, err := st.PruneSnapshots(bg, keep); err == nil && n > 0 {
						a.log.Debug("snapshots pruned", slog.Int64("removed", n))
					}
				}
			}

			w := cmd.OutOrStdout()
			var (
				mu   sync.Mutex
				sess *playback.Session
			)
			deliver := func(text string, slides []deck.Slide) {
				mu.Lock()
				defer mu.Unlock()
				if sess == nil {
					sess = playback.NewSession(slides)
				} else {
					sess.Load(slides)
				}
				out, err := r.Session(sess)
				if err != nil {
					a.log.Warn("render failed", slog.Any("err", err))
					return
				}
				fmt.Fprint(w, out)
				if persist != nil {
					persist(text)
				}
			}
			rp := editor.NewReparser(a.cfg.General.Debounce(), deliver)
			defer rp.Cancel()
			a.log.Info("watch started", slog.String("path", args[0]), slog.Duration("debounce", a.cfg.General.Debounce()))
			err = editor.Watch(ctx, args[0], rp)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&save, "save", true, "save each version to the store")
	cmd.Flags().IntVar(&keep, "keep", 50, "snapshots to keep")
	return cmd
}
