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
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"presentflow/internal/assets"
	"presentflow/internal/storage"
)

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(cmd *cobra.Command, fn func(storage.Backend) error) error {
	st, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save and restore the working deck",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save <file>",
			Short: "Save a deck as the working document and snapshot it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				text, slides, err := a.readDeck(args[0])
				if err != nil {
					return err
				}
				return a.withStore(cmd, func(st storage.Backend) error {
					if err := st.SetMarkdown(cmd.Context(), text); err != nil {
						return err
					}
					if err := st.SaveSnapshot(cmd.Context(), text, time.Now().UTC()); err != nil {
						return err
					}
					a.log.Info("deck saved", slog.Int("bytes", len(text)), slog.Int("slides", len(slides)))
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %d slides\n", len(slides))
					return nil
				})
			},
		},
		newStoreLoadCmd(a),
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the working document and all assets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withStore(cmd, func(st storage.Backend) error {
					if err := st.Clear(cmd.Context()); err != nil {
						return err
					}
					a.log.Info("store cleared")
					fmt.Fprintln(cmd.OutOrStdout(), "Cleared")
					return nil
				})
			},
		},
		newStoreHistoryCmd(a),
	)
	return cmd
}

func newStoreLoadCmd(a *app) *cobra.Command {
	var (
		out      string
		snapshot int
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Print the working document or an earlier snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(st storage.Backend) error {
				text, err := st.Markdown(cmd.Context())
				if err != nil {
					return err
				}
				switch {
				case snapshot == 1:
					latest, ok, err := st.LatestSnapshot(cmd.Context())
					if err != nil {
						return err
					}
					if !ok {
						return errors.New("no snapshots stored")
					}
					text = latest.Text
				case snapshot > 1:
					snaps, err := st.ListSnapshots(cmd.Context(), snapshot)
					if err != nil {
						return err
					}
					if len(snaps) < snapshot {
						return fmt.Errorf("only %d snapshots stored", len(snaps))
					}
					text = snaps[snapshot-1].Text
				}
				if out == "" {
					_, err = io.WriteString(cmd.OutOrStdout(), text)
					return err
				}
				return os.WriteFile(out, []byte(text), 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().IntVar(&snapshot, "snapshot", 0, "load the n-th newest snapshot instead (1 = newest)")
	return cmd
}

func newStoreHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		keep  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(st storage.Backend) error {
				if keep > 0 {
					n, err := st.PruneSnapshots(cmd.Context(), keep)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshots\n", n)
				}
				snaps, err := st.ListSnapshots(cmd.Context(), limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for i, s := range snaps {
					fmt.Fprintf(tw, "%d\t%s\t%d bytes\t%s\n", i+1, s.TS.Local().Format(time.DateTime), len(s.Text), firstTextLine(s.Text))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "snapshots to list")
	cmd.Flags().IntVar(&keep, "prune", 0, "keep only this many snapshots before listing")
	return cmd
}

func firstTextLine(text string) string {
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func newAssetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage images referenced by @image",
	}
	var as string
	add := &cobra.Command{
		Use:   "add <file>",
		Short: "Import a file into the asset registry (images are compressed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editAssets(cmd, func(reg *assets.Registry) error {
				logical, err := assets.Import(reg, as, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Added", logical)
				return nil
			})
		},
	}
	add.Flags().StringVar(&as, "as", "", "logical path used by @image (defaults to the file name)")

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "rm <path>",
			Short: "Remove an asset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editAssets(cmd, func(reg *assets.Registry) error {
					if _, ok := reg.Lookup(args[0]); !ok {
						return fmt.Errorf("no asset %q", args[0])
					}
					reg.Delete(args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "resolve <path>",
			Short: "Print what an @image path resolves to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.loadRegistry(cmd).Resolve(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered assets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				reg := a.loadRegistry(cmd)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, p := range reg.Paths() {
					url, _ := reg.Lookup(p)
					mime, size := "?", 0
					if data, m, err := assets.DecodeDataURL(url); err == nil {
						mime, size = m, len(data)
					}
					fmt.Fprintf(tw, "%s\t%s\t%d bytes\n", p, mime, size)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}

// editAssets loads the registry, applies fn and writes the result back.
func (a *app) editAssets(cmd *cobra.Command, fn func(*assets.Registry) error) error {
	return a.withStore(cmd, func(st storage.Backend) error {
		entries, err := st.Assets(cmd.Context())
		if err != nil {
			return err
		}
		reg := assets.NewRegistry()
		reg.Replace(entries)
		if err := fn(reg); err != nil {
			return err
		}
		if err := st.SetAssets(cmd.Context(), reg.Entries()); err != nil {
			return err
		}
		a.log.Info("assets updated", slog.Int("count", reg.Len()))
		return nil
	})
}
