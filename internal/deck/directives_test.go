/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deck

import "testing"

func TestParseCodeHeader(t *testing.T) {
	cases := []struct {
		header   string
		lang     string
		runtime  string
		editable bool
		runnable bool
	}{
		{"@code", "text", "", false, false},
		{"@code cpp", "cpp", "", false, false},
		{"@code cpp editable run=cpp", "cpp", "cpp", true, true},
		{"@code editable", "text", "", true, false},
		{"@code run=python", "python", "python", false, true},
		{"@code run=c editable js", "js", "c", true, true},
		{"@code run=", "text", "", false, true},
	}
	for _, tc := range cases {
		n := parseCode(tc.header, nil)
		if n.Language != tc.lang || n.RuntimeLanguage != tc.runtime || n.Editable != tc.editable || n.Runnable != tc.runnable {
			t.Fatalf("parseCode(%q) = %+v", tc.header, n)
		}
	}
}

func TestParseImageAttributes(t *testing.T) {
	n := parseImage("@image  logo.png  height=40 width=x=1 width=7")
	if n.Src != "logo.png" || n.Width != 7 || n.Height != 40 {
		t.Fatalf("unexpected image: %+v", n)
	}
	if empty := parseImage("@image   "); empty.Src != "" {
		t.Fatalf("expected empty src, got %+v", empty)
	}
}

func TestLeadingInt(t *testing.T) {
	cases := map[string]int{"120": 120, "120px": 120, "-3": -3, "+4em": 4}
	for in, want := range cases {
		got, ok := leadingInt(in)
		if !ok || got != want {
			t.Fatalf("leadingInt(%q) = %d,%v want %d", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "px", "-", "99999999999999999999999"} {
		if _, ok := leadingInt(in); ok {
			t.Fatalf("leadingInt(%q) should fail", in)
		}
	}
}

func TestParseTitleDateWithoutBrace(t *testing.T) {
	ts := parseTitle([]string{`\date{2025}`, `\date{broken`, "T"})
	if ts.Date != "" || ts.Title != "T" {
		t.Fatalf("unexpected title: %+v", ts)
	}
}
