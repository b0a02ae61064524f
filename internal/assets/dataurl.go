/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

var ErrNotDataURL = errors.New("not a data URL")

// SniffMIME detects the content type from magic bytes. Unknown content is
// application/octet-stream.
func SniffMIME(data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return "application/octet-stream"
}

// EncodeDataURL embeds data as a base64 data URL of the sniffed type.
func EncodeDataURL(data []byte) string {
	return "data:" + SniffMIME(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL returns the payload and declared MIME type of a data URL.
// Both base64 and percent-encoded payloads are accepted.
func DecodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing comma", ErrNotDataURL)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if mime == "" {
		mime = "text/plain;charset=US-ASCII"
	}
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode base64 payload: %w", err)
		}
		return b, mime, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode payload: %w", err)
	}
	return []byte(text), mime, nil
}

// Import reads a file and registers it under logical path. Images are
// compressed first; other files are stored as they are.
func Import(r *Registry, logical, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	if filetype.IsImage(data) {
		if small, err := Compress(data); err == nil {
			data = small
		}
	}
	if logical == "" {
		logical = filepath.ToSlash(filepath.Base(file))
	}
	dataURL := EncodeDataURL(data)
	r.Set(logical, dataURL)
	return logical, nil
}
