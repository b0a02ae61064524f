/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	applog "presentflow/internal/log"
)

type wandboxPayload struct {
	Code     string `json:"code"`
	Compiler string `json:"compiler"`
	Options  string `json:"options"`
}

type wandboxResponse struct {
	CompilerError string `json:"compiler_error"`
	ProgramError  string `json:"program_error"`
	ProgramOutput string `json:"program_output"`
}

type toolchain struct {
	compiler string
	options  string
}

var toolchains = map[string]toolchain{
	"cpp": {compiler: "gcc-head", options: "warning-all,std=c++17"},
	"c":   {compiler: "gcc-head", options: "warning-all"},
}

// Supported reports whether the Wandbox client can run lang.
func Supported(lang string) bool {
	_, ok := toolchains[strings.ToLower(lang)]
	return ok
}

// WandboxClient posts code to a Wandbox-compatible compile endpoint.
type WandboxClient struct {
	URL   string
	Token string // optional bearer token
	http  *http.Client
	log   *slog.Logger
}

// NewWandboxClient creates a client for the compile endpoint at url.
// A zero timeout means 20 seconds.
func NewWandboxClient(url, token string, timeout time.Duration) *WandboxClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &WandboxClient{
		URL:   strings.TrimSpace(url),
		Token: token,
		http:  &http.Client{Timeout: timeout},
		log:   applog.WithComponent("runner"),
	}
}

var _ Compiler = (*WandboxClient)(nil)

const maxErrorBody = 200

func (c *WandboxClient) Run(ctx context.Context, req Request) Result {
	if c.URL == "" {
		return Result{Error: "compiler URL is not configured (set PF_COMPILER_URL)"}
	}
	tc, ok := toolchains[strings.ToLower(req.Language)]
	if !ok {
		return Result{Error: fmt.Sprintf("language %q is not supported", req.Language)}
	}
	l := applog.WithOperation(c.log, "run").With(slog.String("lang", req.Language))

	body, err := json.Marshal(wandboxPayload{Code: req.Code, Compiler: tc.compiler, Options: tc.options})
	if err != nil {
		return Result{Error: err.Error()}
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: err.Error()}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	if c.Token != "" {
		hreq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		l.Warn("compile request failed", slog.Any("err", err))
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Error: fmt.Sprintf("read response: %v", err)}
	}
	l.Debug("compile response", slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := raw
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return Result{Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, snippet)}
	}

	var out wandboxResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{Error: fmt.Sprintf("malformed compiler response: %v", err)}
	}
	switch {
	case out.CompilerError != "":
		return Result{Error: out.CompilerError, Kind: KindCompiler}
	case out.ProgramError != "":
		return Result{Error: out.ProgramError, Kind: KindRuntime}
	}
	return Result{Output: out.ProgramOutput}
}
