/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deck

import (
	"regexp"
	"strings"
)

// Style lines are backslash commands inside @title, @section and @style blocks.
var (
	reStyleAlign     = regexp.MustCompile(`(?i)^\\align\s+(left|center|right)\s*$`)
	reStyleMargin    = regexp.MustCompile(`^\\margin\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s*$`)
	reStyleMarginOne = regexp.MustCompile(`(?i)^\\margin(Left|Right|Top|Bottom)\s+(\S+)\s*$`)
	reStyleFontSize  = regexp.MustCompile(`(?i)^\\fontSize\s+(.+)$`)

	// looser prefixes used by callers to route a line to the style grammar
	reStylePrefix = regexp.MustCompile(`(?i)^(\\align\s|\\margin|\\fontSize\s)`)
)

// IsStyleLine reports whether a line belongs to the style grammar rather than
// to content. Lines accepted here that match no full pattern are dropped by
// ParseStyle.
func IsStyleLine(line string) bool {
	return reStylePrefix.MatchString(strings.TrimSpace(line))
}

// ParseStyle folds style lines into a style record. It returns nil when no
// field was set.
func ParseStyle(lines []string) *BlockStyle {
	var s BlockStyle
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if m := reStyleAlign.FindStringSubmatch(t); m != nil {
			s.TextAlign = Align(strings.ToLower(m[1]))
			continue
		}
		if m := reStyleMargin.FindStringSubmatch(t); m != nil {
			s.MarginTop, s.MarginRight, s.MarginBottom, s.MarginLeft = m[1], m[2], m[3], m[4]
			continue
		}
		if m := reStyleMarginOne.FindStringSubmatch(t); m != nil {
			switch strings.ToLower(m[1]) {
			case "top":
				s.MarginTop = m[2]
			case "right":
				s.MarginRight = m[2]
			case "bottom":
				s.MarginBottom = m[2]
			case "left":
				s.MarginLeft = m[2]
			}
			continue
		}
		if m := reStyleFontSize.FindStringSubmatch(t); m != nil {
			s.FontSize = strings.TrimSpace(m[1])
		}
	}
	if s.empty() {
		return nil
	}
	return &s
}
