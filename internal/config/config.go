/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: defaults, then the YAML file
// in the user config directory, then environment overrides. The compiler
// service token is kept in the OS keyring and never written to the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// config_version is bumped when the file layout changes incompatibly.
// Unknown keys in the file are ignored.

type GeneralConfig struct {
	// DebounceMs is the quiet period after the last edit before a re-parse.
	DebounceMs int `yaml:"debounce_ms"`
}

type CompilerConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres connection string
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Compiler      CompilerConfig `yaml:"compiler"`
	Storage       StorageConfig  `yaml:"storage"`
	Logging       LoggingConfig  `yaml:"logging"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Defaults returns the built-in configuration. An empty storage path is
// resolved to presentflow.db in the data directory by Load.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DebounceMs: 500},
		Compiler:      CompilerConfig{TimeoutMs: 20000},
		Storage:       StorageConfig{Driver: DriverSQLite},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvCompilerURL       = "PF_COMPILER_URL"
	EnvLegacyCompilerURL = "CPP_COMPILER_URL"
	EnvCompilerTimeoutMs = "PF_COMPILER_TIMEOUT_MS"
	EnvDebounceMs        = "PF_DEBOUNCE_MS"
	EnvStorageDriver     = "PF_STORAGE_DRIVER"
	EnvStoragePath       = "PF_STORAGE_PATH"
	EnvPGDSN             = "PF_PG_DSN"
	EnvLogLevel          = "PF_LOG_LEVEL"
	EnvLogFormat         = "PF_LOG_FORMAT"
	EnvLogSource         = "PF_LOG_SOURCE"
	EnvLogFile           = "PF_LOG_FILE"
)

const (
	keyringService = "presentflow"
	keyringToken   = "compiler_token"
)

// TokenStore is the secret store for the compiler token.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// tokenStore is swapped for an in-memory store in tests.
var tokenStore TokenStore = osKeyring{}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

func baseDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "presentflow")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "presentflow")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "presentflow")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataDir is where the default database and crash reports live.
func DataDir() (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "data"), nil
}

// Load reads the config file (if present), applies defaults and environment
// overrides, and fetches the compiler token from the keyring. A missing
// token is not an error; a malformed file is.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if cfg.Storage.Path == "" {
		if dir, err := DataDir(); err == nil {
			cfg.Storage.Path = filepath.Join(dir, "presentflow.db")
		}
	}
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the YAML file and stores a non-empty token in the keyring.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store compiler token: %w", err)
		}
	}
	return nil
}

// ClearToken removes the compiler token from the keyring.
func ClearToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.DebounceMs > 0 {
		dst.General.DebounceMs = src.General.DebounceMs
	}
	if v := strings.TrimSpace(src.Compiler.URL); v != "" {
		dst.Compiler.URL = v
	}
	if src.Compiler.TimeoutMs > 0 {
		dst.Compiler.TimeoutMs = src.Compiler.TimeoutMs
	}
	if v := strings.ToLower(strings.TrimSpace(src.Storage.Driver)); v != "" {
		dst.Storage.Driver = v
	}
	if v := strings.TrimSpace(src.Storage.Path); v != "" {
		dst.Storage.Path = v
	}
	if v := strings.TrimSpace(src.Storage.DSN); v != "" {
		dst.Storage.DSN = v
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvLegacyCompilerURL)); v != "" {
		cfg.Compiler.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCompilerURL)); v != "" {
		cfg.Compiler.URL = v
	}
	envInt(EnvCompilerTimeoutMs, &cfg.Compiler.TimeoutMs)
	envInt(EnvDebounceMs, &cfg.General.DebounceMs)
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPGDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var overrides = map[string][]string{
	"general.debounce_ms": {EnvDebounceMs},
	"compiler.url":        {EnvCompilerURL, EnvLegacyCompilerURL},
	"compiler.timeout_ms": {EnvCompilerTimeoutMs},
	"storage.driver":      {EnvStorageDriver},
	"storage.path":        {EnvStoragePath},
	"storage.dsn":         {EnvPGDSN},
	"logging.level":       {EnvLogLevel},
	"logging.format":      {EnvLogFormat},
	"logging.source":      {EnvLogSource},
	"logging.file":        {EnvLogFile},
}

// EnvOverrideFor names the environment variable currently overriding key
// ("compiler.url", "logging.level", ...).
func EnvOverrideFor(key string) (string, bool) {
	for _, env := range overrides[key] {
		if os.Getenv(env) != "" {
			return env, true
		}
	}
	return "", false
}

// Keys lists the keys EnvOverrideFor understands, in file order.
func Keys() []string {
	return []string{
		"general.debounce_ms", "compiler.url", "compiler.timeout_ms",
		"storage.driver", "storage.path", "storage.dsn",
		"logging.level", "logging.format", "logging.source", "logging.file",
	}
}

// Debounce is the re-parse quiet period.
func (g GeneralConfig) Debounce() time.Duration {
	if g.DebounceMs <= 0 {
		return time.Duration(Defaults().General.DebounceMs) * time.Millisecond
	}
	return time.Duration(g.DebounceMs) * time.Millisecond
}

// Timeout is the HTTP timeout for one compile request.
func (c CompilerConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return time.Duration(Defaults().Compiler.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
