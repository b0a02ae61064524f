/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) {
	v, ok := m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}
func (m memTokens) Set(service, key, value string) error { m[service+"/"+key] = value; return nil }
func (m memTokens) Delete(service, key string) error {
	if _, ok := m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(m, service+"/"+key)
	return nil
}

// isolate points HOME at a temp dir and swaps the keyring for memory.
func isolate(t *testing.T) memTokens {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{EnvCompilerURL, EnvLegacyCompilerURL, EnvCompilerTimeoutMs, EnvDebounceMs,
		EnvStorageDriver, EnvStoragePath, EnvPGDSN, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile} {
		t.Setenv(env, "")
	}
	mem := memTokens{}
	old := tokenStore
	tokenStore = mem
	t.Cleanup(func() { tokenStore = old })
	return mem
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "" {
		t.Fatalf("unexpected token %q", tok)
	}
	if cfg.General.Debounce() != 500*time.Millisecond || cfg.Storage.Driver != DriverSQLite {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if filepath.Base(cfg.Storage.Path) != "presentflow.db" {
		t.Fatalf("storage path not resolved: %q", cfg.Storage.Path)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	mem := isolate(t)
	cfg := Defaults()
	cfg.Compiler.URL = "https://wandbox.example/api/compile.json"
	cfg.General.DebounceMs = 250
	cfg.Logging.Source = true
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	path, _ := ConfigPath()
	if b, err := os.ReadFile(path); err != nil || len(b) == 0 {
		t.Fatalf("config file not written: %v", err)
	}

	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "s3cret" || mem["presentflow/compiler_token"] != "s3cret" {
		t.Fatalf("token not kept in keyring: %q", tok)
	}
	if got.Compiler.URL != cfg.Compiler.URL || got.General.DebounceMs != 250 || !got.Logging.Source {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken() error: %v", err)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("second ClearToken() error: %v", err)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	isolate(t)
	path, _ := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("general: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLegacyCompilerURL, "http://legacy.test")
	t.Setenv(EnvCompilerTimeoutMs, "1500")
	t.Setenv(EnvDebounceMs, "bogus")
	t.Setenv(EnvStorageDriver, "Postgres")
	t.Setenv(EnvPGDSN, "postgres://u@localhost/pf")
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvLogSource, "yes")

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Compiler.URL != "http://legacy.test" || cfg.Compiler.Timeout() != 1500*time.Millisecond {
		t.Fatalf("compiler overrides not applied: %+v", cfg.Compiler)
	}
	if cfg.General.DebounceMs != 500 {
		t.Fatalf("invalid debounce override should be ignored: %d", cfg.General.DebounceMs)
	}
	if cfg.Storage.Driver != DriverPostgres || cfg.Storage.DSN == "" {
		t.Fatalf("storage overrides not applied: %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("logging overrides not applied: %+v", cfg.Logging)
	}

	// the new name wins over the legacy one
	t.Setenv(EnvCompilerURL, "http://new.test")
	cfg, _, _ = Load()
	if cfg.Compiler.URL != "http://new.test" {
		t.Fatalf("PF_COMPILER_URL should win: %q", cfg.Compiler.URL)
	}
	if env, ok := EnvOverrideFor("compiler.url"); !ok || env != EnvCompilerURL {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("storage.path"); ok {
		t.Fatalf("storage.path is not overridden")
	}
}

func TestMergeKeepsDefaultsForEmptyFields(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Logging: LoggingConfig{Level: " DEBUG ", File: "/tmp/pf.log"}}
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "console" || dst.Logging.File != "/tmp/pf.log" {
		t.Fatalf("logging merge mismatch: %+v", dst.Logging)
	}
	if dst.General.DebounceMs != 500 || dst.Storage.Driver != DriverSQLite {
		t.Fatalf("defaults overwritten: %+v", dst)
	}
}
