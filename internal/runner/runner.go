/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package runner executes runnable code blocks through a remote compiler
// service. Failures never surface as Go errors: they are part of the Result
// so a presenter can show them next to the code.
package runner

import (
	"context"
	"strings"

	"presentflow/internal/deck"
)

// ErrorKind tells where a failed run broke.
type ErrorKind string

const (
	KindNone     ErrorKind = ""
	KindCompiler ErrorKind = "compiler"
	KindRuntime  ErrorKind = "runtime"
)

type Request struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Result is the outcome of one run. Error is empty on success. Kind is set
// only when the service reported a compiler or program error; transport and
// configuration problems leave it empty.
type Result struct {
	Output string    `json:"output"`
	Error  string    `json:"error,omitempty"`
	Kind   ErrorKind `json:"errorKind,omitempty"`
}

func (r Result) Failed() bool { return r.Error != "" }

// Compiler runs code. Implementations report every failure in the Result.
type Compiler interface {
	Run(ctx context.Context, req Request) Result
}

// RequestFor builds the request for a code block. A runnable block executes
// as its runtime language, which may differ from the highlighting language.
func RequestFor(n deck.CodeNode) Request {
	lang := n.Language
	if n.Runnable && n.RuntimeLanguage != "" {
		lang = n.RuntimeLanguage
	}
	return Request{Code: n.Code, Language: strings.ToLower(lang)}
}

// Format renders a result the way the console pane shows it.
func Format(r Result) string {
	switch {
	case r.Failed() && r.Kind == KindCompiler:
		return "Compilation failed:\n" + r.Error
	case r.Failed() && r.Kind == KindRuntime:
		return "Runtime error:\n" + r.Error
	case r.Failed():
		return "Error:\n" + r.Error
	case r.Output != "":
		return "Result:\n" + r.Output
	default:
		return "Program finished without output."
	}
}
