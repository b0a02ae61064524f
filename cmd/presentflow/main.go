/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


// Command presentflow parses slide decks, previews them in the terminal and
// exports them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"presentflow/internal/config"
	"presentflow/internal/crash"
	"presentflow/internal/deck"
	applog "presentflow/internal/log"
	"presentflow/internal/storage"
	"presentflow/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	dir, _ := config.DataDir()
	defer crash.Recover(dir)

	root := newRootCmd(&app{in: in})
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// app is the state shared by all subcommands once the root has loaded the
// configuration.
type app struct {
	cfg   config.AppConfig
	token string
	log   *slog.Logger
	in    io.Reader
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "presentflow",
		Short:             "Markdown slide decks with fragments and live code",
		Version:           version.String(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.AddCommand(
		newParseCmd(a),
		newOutlineCmd(a),
		newHandoutCmd(a),
		newNewCmd(a),
		newPlayCmd(a),
		newWatchCmd(a),
		newRunCmd(a),
		newStoreCmd(a),
		newAssetCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, tok, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg, a.token = cfg, tok
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Output:    cmd.ErrOrStderr(),
	})
	a.log = applog.WithComponent("cli")
	a.log.Debug("start", slog.String("cmd", cmd.CommandPath()), slog.String("storage", cfg.Storage.Driver))
	return nil
}

func (a *app) openStore(ctx context.Context) (storage.Backend, error) {
	st, err := storage.Open(ctx, storage.Options{
		Driver: a.cfg.Storage.Driver,
		Path:   a.cfg.Storage.Path,
		DSN:    a.cfg.Storage.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// readDeck reads markup from path, or from stdin when path is "-".
func (a *app) readDeck(path string) (string, []deck.Slide, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", nil, err
	}
	text := string(data)
	slides := deck.Parse(text)
	a.log.Debug("parsed deck", slog.String("path", path), slog.Int("slides", len(slides)))
	return text, slides, nil
}

func deckDir(path string) string {
	if path == "-" {
		return "."
	}
	return filepath.Dir(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "presentflow", version.String())
		},
	}
}
