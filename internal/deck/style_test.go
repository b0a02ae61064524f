/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deck

import (
	"reflect"
	"testing"
)

func TestParseStyle(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  *BlockStyle
	}{
		{"none", nil, nil},
		{"align any case", []string{`\align CENTER`}, &BlockStyle{TextAlign: AlignCenter}},
		{"four margins", []string{`\margin 1px 2px 3px 4px`}, &BlockStyle{MarginTop: "1px", MarginRight: "2px", MarginBottom: "3px", MarginLeft: "4px"}},
		{"one side any case", []string{`  \MarginTOP 5px `}, &BlockStyle{MarginTop: "5px"}},
		{"later side wins", []string{`\margin 1 2 3 4`, `\marginLeft 9`}, &BlockStyle{MarginTop: "1", MarginRight: "2", MarginBottom: "3", MarginLeft: "9"}},
		{"font size rest of line", []string{`\fontSize  1.5em  `}, &BlockStyle{FontSize: "1.5em"}},
		{"two margins are ignored", []string{`\margin 1 2`}, nil},
		{"unknown alignment", []string{`\align justify`}, nil},
		{"upper-case four margins are ignored", []string{`\MARGIN 1 2 3 4`}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseStyle(tc.lines)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseStyle(%q) = %+v, want %+v", tc.lines, got, tc.want)
			}
		})
	}
}

func TestIsStyleLine(t *testing.T) {
	yes := []string{`\align left`, `  \ALIGN x`, `\margin`, `\marginFoo 1`, `\fontSize 2em`}
	no := []string{`\alignleft`, `\fontSize`, `align left`, `text \align left`, ``}
	for _, l := range yes {
		if !IsStyleLine(l) {
			t.Fatalf("expected %q to be a style line", l)
		}
	}
	for _, l := range no {
		if IsStyleLine(l) {
			t.Fatalf("expected %q not to be a style line", l)
		}
	}
}
