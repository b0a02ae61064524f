/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version holds build identification. Version is set at link time:
//
//	go build -ldflags "-X presentflow/internal/version.Version=v0.3.0"
package version

import (
	"runtime/debug"
	"sync"
)

var Version = "dev"

var (
	revOnce sync.Once
	rev     string
)

func revision() string {
	revOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				rev = s.Value[:7]
			}
		}
	})
	return rev
}

// String is Version, followed by the short VCS revision when the binary was
// built from a checkout.
func String() string {
	if r := revision(); r != "" {
		return Version + " (" + r + ")"
	}
	return Version
}
