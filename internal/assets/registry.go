/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets maps the logical paths used in image directives to stored
// image data.
package assets

import (
	"maps"
	"net/url"
	"slices"
	"strings"
	"sync"
)

// Resolver turns a logical asset path into something a renderer can load.
type Resolver interface {
	Resolve(path string) string
}

// Registry holds path → data URL entries. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewRegistry() *Registry { return &Registry{entries: map[string]string{}} }

// Lookup finds path exactly, then in its percent-decoded form.
func (r *Registry) Lookup(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.entries[path]; ok {
		return v, true
	}
	if strings.Contains(path, "%") {
		if decoded, err := url.PathUnescape(path); err == nil {
			v, ok := r.entries[decoded]
			return v, ok
		}
	}
	return "", false
}

// Resolve is Lookup falling back to path itself, so external URLs and
// unknown paths pass through unchanged.
func (r *Registry) Resolve(path string) string {
	if v, ok := r.Lookup(path); ok {
		return v
	}
	return path
}

func (r *Registry) Set(path, dataURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[path] = dataURL
}

func (r *Registry) Delete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, path)
}

// Replace swaps the whole registry, as after loading it from a store.
func (r *Registry) Replace(entries map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = maps.Clone(entries)
	if r.entries == nil {
		r.entries = map[string]string{}
	}
}

// Entries returns a copy of all entries.
func (r *Registry) Entries() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.entries)
}

// Paths lists the registered paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
