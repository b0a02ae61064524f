/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package deck

import "encoding/json"

// Slide is one top-level unit of a deck. The concrete types are
// TitleSlide, SectionSlide, ContentSlide and ErrorSlide.
type Slide interface {
	Kind() string
	isSlide()
}

// Node is one content element of a ContentSlide or of a StyledNode.
type Node interface {
	Kind() string
	isNode()
}

// Align is a text alignment value of a style record.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// BlockStyle carries optional presentation hints. Empty fields mean "inherit".
// A block without hints has a nil *BlockStyle, never an empty record.
type BlockStyle struct {
	TextAlign    Align  `json:"textAlign,omitempty"`
	MarginTop    string `json:"marginTop,omitempty"`
	MarginRight  string `json:"marginRight,omitempty"`
	MarginBottom string `json:"marginBottom,omitempty"`
	MarginLeft   string `json:"marginLeft,omitempty"`
	FontSize     string `json:"fontSize,omitempty"`
	// Width and Height are only meaningful on columns and fragment containers.
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

func (s BlockStyle) empty() bool { return s == BlockStyle{} }

// TitleSlide opens a deck. Optional fields are empty when absent.
type TitleSlide struct {
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle,omitempty"`
	Author      string      `json:"author,omitempty"`
	Affiliation string      `json:"affiliation,omitempty"`
	Date        string      `json:"date,omitempty"`
	Style       *BlockStyle `json:"style,omitempty"`
}

type SectionSlide struct {
	Title string      `json:"title"`
	Style *BlockStyle `json:"style,omitempty"`
}

// ContentSlide holds nodes in presentation order. Overflowing content is
// clipped unless Scroll is set.
type ContentSlide struct {
	Nodes  []Node `json:"nodes"`
	Scroll bool   `json:"scroll,omitempty"`
}

// ErrorSlide replaces the whole deck when parsing faulted.
type ErrorSlide struct {
	Message string `json:"message"`
}

func (TitleSlide) Kind() string   { return "title" }
func (SectionSlide) Kind() string { return "section" }
func (ContentSlide) Kind() string { return "content" }
func (ErrorSlide) Kind() string   { return "error" }

func (TitleSlide) isSlide()   {}
func (SectionSlide) isSlide() {}
func (ContentSlide) isSlide() {}
func (ErrorSlide) isSlide()   {}

// TextNode is markdown text, optionally rendered with a list style class
// (disc, circle, square, decimal, ...).
type TextNode struct {
	Content   string `json:"content"`
	ListClass string `json:"listClass,omitempty"`
}

// ImageNode references an asset by logical path. Width and Height are pixels; 0 means unset.
type ImageNode struct {
	Src    string `json:"src"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type VideoNode struct {
	Src       string `json:"src"`
	FullSlide bool   `json:"fullSlide,omitempty"`
}

// CodeNode is a code listing. Runnable is set iff a run=<lang> token was present;
// RuntimeLanguage then names the language the code is executed as.
type CodeNode struct {
	Language        string `json:"language"`
	Code            string `json:"code"`
	Editable        bool   `json:"editable"`
	Runnable        bool   `json:"runnable"`
	RuntimeLanguage string `json:"runtimeLanguage,omitempty"`
}

// TableNode is a grid of cells; Rows[0] is the header when present.
type TableNode struct {
	Borderless bool       `json:"borderless"`
	Rows       [][]string `json:"rows"`
}

// FragmentNode is a reveal unit.
type FragmentNode struct {
	Content string      `json:"content"`
	Style   *BlockStyle `json:"style,omitempty"`
}

// ColumnsNode keeps each column as raw markup text.
type ColumnsNode struct {
	Columns      []string      `json:"columns"`
	Style        *BlockStyle   `json:"style,omitempty"`
	ColumnStyles []*BlockStyle `json:"columnStyles,omitempty"`
}

// StyledNode is the recursive container produced by @style.
type StyledNode struct {
	Style    *BlockStyle `json:"style,omitempty"`
	Children []Node      `json:"children"`
}

func (TextNode) Kind() string     { return "text" }
func (ImageNode) Kind() string    { return "image" }
func (VideoNode) Kind() string    { return "video" }
func (CodeNode) Kind() string     { return "code" }
func (TableNode) Kind() string    { return "table" }
func (FragmentNode) Kind() string { return "fragment" }
func (ColumnsNode) Kind() string  { return "columns" }
func (StyledNode) Kind() string   { return "styled" }

func (TextNode) isNode()     {}
func (ImageNode) isNode()    {}
func (VideoNode) isNode()    {}
func (CodeNode) isNode()     {}
func (TableNode) isNode()    {}
func (FragmentNode) isNode() {}
func (ColumnsNode) isNode()  {}
func (StyledNode) isNode()   {}

// JSON encoding adds a "type" discriminator to every variant.

func withType(kind string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	t, _ := json.Marshal(kind)
	fields["type"] = t
	return json.Marshal(fields)
}

func (s TitleSlide) MarshalJSON() ([]byte, error) {
	type plain TitleSlide
	return withType(s.Kind(), plain(s))
}

func (s SectionSlide) MarshalJSON() ([]byte, error) {
	type plain SectionSlide
	return withType(s.Kind(), plain(s))
}

func (s ContentSlide) MarshalJSON() ([]byte, error) {
	type plain ContentSlide
	p := plain(s)
	if p.Nodes == nil {
		p.Nodes = []Node{}
	}
	return withType(s.Kind(), p)
}

func (s ErrorSlide) MarshalJSON() ([]byte, error) {
	type plain ErrorSlide
	return withType(s.Kind(), plain(s))
}

func (n TextNode) MarshalJSON() ([]byte, error) {
	type plain TextNode
	return withType(n.Kind(), plain(n))
}

func (n ImageNode) MarshalJSON() ([]byte, error) {
	type plain ImageNode
	return withType(n.Kind(), plain(n))
}

func (n VideoNode) MarshalJSON() ([]byte, error) {
	type plain VideoNode
	return withType(n.Kind(), plain(n))
}

func (n CodeNode) MarshalJSON() ([]byte, error) {
	type plain CodeNode
	return withType(n.Kind(), plain(n))
}

func (n TableNode) MarshalJSON() ([]byte, error) {
	type plain TableNode
	p := plain(n)
	if p.Rows == nil {
		p.Rows = [][]string{}
	}
	return withType(n.Kind(), p)
}

func (n FragmentNode) MarshalJSON() ([]byte, error) {
	type plain FragmentNode
	return withType(n.Kind(), plain(n))
}

func (n ColumnsNode) MarshalJSON() ([]byte, error) {
	type plain ColumnsNode
	p := plain(n)
	if p.Columns == nil {
		p.Columns = []string{}
	}
	return withType(n.Kind(), p)
}

func (n StyledNode) MarshalJSON() ([]byte, error) {
	type plain StyledNode
	p := plain(n)
	if p.Children == nil {
		p.Children = []Node{}
	}
	return withType(n.Kind(), p)
}
