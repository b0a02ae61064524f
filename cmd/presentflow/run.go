/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"presentflow/internal/deck"
	"presentflow/internal/runner"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		block    int
		codeFile string
	)
	cmd := &cobra.Command{
		Use:   "run <file> <slide>",
		Short: "Compile and run the runnable code blocks of a slide",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, slides, err := a.readDeck(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 || n > len(slides) {
				return fmt.Errorf("slide %q out of range 1..%d", args[1], len(slides))
			}
			blocks := runnableBlocks(slides[n-1])
			if len(blocks) == 0 {
				return fmt.Errorf("slide %d has no runnable code", n)
			}
			if block > 0 {
				if block > len(blocks) {
					return fmt.Errorf("slide %d has %d runnable blocks", n, len(blocks))
				}
				blocks = blocks[block-1 : block]
			}
			if codeFile != "" {
				if len(blocks) != 1 {
					return fmt.Errorf("--code needs --block when the slide has %d runnable blocks", len(blocks))
				}
				if !blocks[0].Editable {
					return errors.New("code block is not editable")
				}
				src, err := os.ReadFile(codeFile)
				if err != nil {
					return err
				}
				blocks[0].Code = string(src)
			}

			for _, b := range blocks {
				if lang := runner.RequestFor(b).Language; !runner.Supported(lang) {
					return fmt.Errorf("slide %d: language %q is not supported by the compiler service", n, lang)
				}
			}

			var c runner.Compiler = runner.NewWandboxClient(a.cfg.Compiler.URL, a.token, a.cfg.Compiler.Timeout())
			w := cmd.OutOrStdout()
			failed := false
			for i, b := range blocks {
				req := runner.RequestFor(b)
				a.log.Info("running code", slog.Int("slide", n), slog.String("lang", req.Language))
				res := c.Run(cmd.Context(), req)
				if len(blocks) > 1 {
					fmt.Fprintf(w, "== block %d (%s)\n", i+1, req.Language)
				}
				fmt.Fprintln(w, runner.Format(res))
				failed = failed || res.Failed()
			}
			if failed {
				return errors.New("run failed")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&block, "block", 0, "run only this runnable block (1-based)")
	cmd.Flags().StringVar(&codeFile, "code", "", "replace the code of an editable block with this file")
	return cmd
}

// runnableBlocks collects the runnable code blocks of s in document order.
func runnableBlocks(s deck.Slide) []deck.CodeNode {
	cs, ok := s.(deck.ContentSlide)
	if !ok {
		return nil
	}
	var out []deck.CodeNode
	var walk func([]deck.Node)
	walk = func(nodes []deck.Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case deck.CodeNode:
				if n.Runnable {
					out = append(out, n)
				}
			case deck.StyledNode:
				walk(n.Children)
			}
		}
	}
	walk(cs.Nodes)
	return out
}
