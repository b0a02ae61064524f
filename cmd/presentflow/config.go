/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"presentflow/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings and where overrides come from",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, _ := config.ConfigPath()
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, "# file:", path)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, k := range config.Keys() {
					line := k + "\t" + configValue(a.cfg, k)
					if env, ok := config.EnvOverrideFor(k); ok {
						line += "\t(from " + env + ")"
					}
					fmt.Fprintln(tw, line)
				}
				token := "not set"
				if a.token != "" {
					token = "set (keyring)"
				}
				fmt.Fprintln(tw, "compiler.token\t"+token)
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "save",
			Short: "Write the effective settings to the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.Save(a.cfg, ""); err != nil {
					return err
				}
				path, _ := config.ConfigPath()
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-token <token>",
			Short: "Store the compiler service token in the system keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if strings.TrimSpace(args[0]) == "" {
					return fmt.Errorf("empty token")
				}
				return config.Save(a.cfg, args[0])
			},
		},
		&cobra.Command{
			Use:   "clear-token",
			Short: "Remove the compiler service token from the keyring",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return config.ClearToken()
			},
		},
	)
	return cmd
}

func configValue(cfg config.AppConfig, key string) string {
	switch key {
	case "general.debounce_ms":
		return strconv.Itoa(cfg.General.DebounceMs)
	case "compiler.url":
		return cfg.Compiler.URL
	case "compiler.timeout_ms":
		return strconv.Itoa(cfg.Compiler.TimeoutMs)
	case "storage.driver":
		return cfg.Storage.Driver
	case "storage.path":
		return cfg.Storage.Path
	case "storage.dsn":
		if cfg.Storage.DSN != "" {
			return "(set)"
		}
		return ""
	case "logging.level":
		return cfg.Logging.Level
	case "logging.format":
		return cfg.Logging.Format
	case "logging.source":
		return strconv.FormatBool(cfg.Logging.Source)
	case "logging.file":
		return cfg.Logging.File
	}
	return ""
}
