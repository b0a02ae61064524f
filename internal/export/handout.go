/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"presentflow/internal/assets"
	"presentflow/internal/deck"
	applog "presentflow/internal/log"
)

// HandoutOptions controls the PDF handout. Units are millimetres.
type HandoutOptions struct {
	Title string
	// Resolver maps image paths to data URLs; nil leaves paths as they are.
	Resolver assets.Resolver
	// BaseDir anchors relative image file paths.
	BaseDir string
	// FontFile is a TrueType font used for all text. Without it the PDF core
	// fonts are used, which only cover Windows-1252 (Latin) characters.
	FontFile string
}

// unicodeFamily is the family name FontFile is registered under.
const unicodeFamily = "deck"


// pxToMM converts CSS pixels (96 per inch).
const pxToMM = 25.4 / 96

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reBullet   = regexp.MustCompile(`^\s*([-*+]|\d+\.)\s+`)
	reEmphasis = regexp.MustCompile("(\\*\\*|__|\\*|_|`)")
	reLink     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
)

type handout struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	family string
	mono   string
	opts   HandoutOptions
	log    *slog.Logger
	imgs   int
}

// WriteHandout renders every slide on its own landscape A4 page with all
// fragments revealed, and writes the PDF to w.
func WriteHandout(w io.Writer, slides []deck.Slide, opts HandoutOptions) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(18, 16, 18)
	pdf.SetAutoPageBreak(true, 16)
	title := opts.Title
	if title == "" {
		title = deckTitle(slides)
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("presentflow", true)

	h := &handout{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: "Helvetica",
		mono:   "Courier",
		opts:   opts,
		log:    applog.WithComponent("export"),
	}
	if opts.FontFile != "" {
		for _, style := range []string{"", "B", "I"} {
			pdf.AddUTF8Font(unicodeFamily, style, opts.FontFile)
		}
		if pdf.Err() {
			return fmt.Errorf("load font %s: %w", opts.FontFile, pdf.Error())
		}
		h.tr = func(s string) string { return s }
		h.family, h.mono = unicodeFamily, unicodeFamily
	}
	pdf.SetFooterFunc(func() {
		pageW, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		half := (pageW - left - right) / 2
		pdf.SetXY(left, -12)
		pdf.SetFont(h.family, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(half, 6, h.tr(title), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 6, strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	for _, s := range slides {
		pdf.AddPage()
		pdf.SetTextColor(0, 0, 0)
		switch v := s.(type) {
		case deck.TitleSlide:
			h.titleSlide(v)
		case deck.SectionSlide:
			h.sectionSlide(v)
		case deck.ContentSlide:
			h.nodes(v.Nodes, "L")
		case deck.ErrorSlide:
			pdf.SetFont(h.family, "B", 16)
			pdf.SetTextColor(180, 0, 0)
			pdf.MultiCell(0, 8, h.tr("Parse error: "+v.Message), "", "L", false)
		}
		if pdf.Err() {
			return fmt.Errorf("render handout: %w", pdf.Error())
		}
	}
	if len(slides) == 0 {
		pdf.AddPage()
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WriteHandoutFile is WriteHandout into a new file at path.
func WriteHandoutFile(path string, slides []deck.Slide, opts HandoutOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteHandout(&buf, slides, opts); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func deckTitle(slides []deck.Slide) string {
	for _, s := range slides {
		if t, ok := s.(deck.TitleSlide); ok && t.Title != "" {
			return t.Title
		}
	}
	return "presentflow"
}

func align(st *deck.BlockStyle, inherited string) string {
	if st == nil {
		return inherited
	}
	switch st.TextAlign {
	case deck.AlignCenter:
		return "C"
	case deck.AlignRight:
		return "R"
	case deck.AlignLeft:
		return "L"
	}
	return inherited
}

func (h *handout) titleSlide(s deck.TitleSlide) {
	p := h.pdf
	a := align(s.Style, "C")
	p.SetY(60)
	p.SetFont(h.family, "B", 32)
	p.MultiCell(0, 14, h.tr(s.Title), "", a, false)
	if s.Subtitle != "" {
		p.SetFont(h.family, "", 20)
		p.MultiCell(0, 10, h.tr(s.Subtitle), "", a, false)
	}
	p.Ln(8)
	p.SetFont(h.family, "", 14)
	for _, line := range []string{s.Author, s.Affiliation, s.Date} {
		if line != "" {
			p.MultiCell(0, 7, h.tr(line), "", a, false)
		}
	}
}

func (h *handout) sectionSlide(s deck.SectionSlide) {
	p := h.pdf
	p.SetY(85)
	p.SetFont(h.family, "B", 28)
	p.MultiCell(0, 12, h.tr(s.Title), "", align(s.Style, "C"), false)
}

func (h *handout) nodes(nodes []deck.Node, a string) {
	for _, n := range nodes {
		switch v := n.(type) {
		case deck.TextNode:
			h.text(v.Content, a)
		case deck.FragmentNode:
			h.text(v.Content, align(v.Style, a))
		case deck.StyledNode:
			h.nodes(v.Children, align(v.Style, a))
		case deck.CodeNode:
			h.code(v)
		case deck.TableNode:
			h.table(v)
		case deck.ImageNode:
			h.image(v)
		case deck.VideoNode:
			h.pdf.SetFont(h.family, "I", 11)
			h.pdf.MultiCell(0, 6, h.tr("[video: "+v.Src+"]"), "", a, false)
		case deck.ColumnsNode:
			h.columns(v)
		}
	}
}

func plain(s string) string {
	s = reLink.ReplaceAllString(s, "$1")
	return reEmphasis.ReplaceAllString(s, "")
}

// text lays out markdown lines: headings get larger type, list items a bullet.
func (h *handout) text(content, a string) {
	p := h.pdf
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			p.Ln(3)
			continue
		}
		if m := reHeading.FindStringSubmatch(line); m != nil {
			size := float64(max(13, 26-3*len(m[1])))
			p.SetFont(h.family, "B", size)
			p.MultiCell(0, size*0.5, h.tr(plain(m[2])), "", a, false)
			p.Ln(2)
			continue
		}
		p.SetFont(h.family, "", 13)
		if loc := reBullet.FindStringIndex(line); loc != nil {
			indent := float64(len(line)-len(strings.TrimLeft(line, " \t"))) * 1.5
			p.SetX(p.GetX() + indent)
			p.MultiCell(0, 6.5, h.tr("- "+plain(line[loc[1]:])), "", "L", false)
			continue
		}
		p.MultiCell(0, 6.5, h.tr(plain(line)), "", a, false)
	}
}

func (h *handout) code(n deck.CodeNode) {
	p := h.pdf
	p.Ln(2)
	p.SetFont(h.family, "I", 8)
	p.SetTextColor(100, 100, 100)
	label := n.Language
	if n.Runnable {
		label += " (runnable as " + n.RuntimeLanguage + ")"
	}
	p.CellFormat(0, 5, h.tr(label), "", 1, "L", false, 0, "")
	p.SetTextColor(0, 0, 0)
	p.SetFont(h.mono, "", 9)
	p.SetFillColor(242, 242, 242)
	p.MultiCell(0, 4.5, h.tr(strings.ReplaceAll(n.Code, "\t", "    ")), "", "L", true)
	p.Ln(3)
}

func (h *handout) table(n deck.TableNode) {
	if len(n.Rows) == 0 {
		return
	}
	p := h.pdf
	cols := 0
	for _, r := range n.Rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}
	pageW, _ := p.GetPageSize()
	left, _, right, _ := p.GetMargins()
	cw := (pageW - left - right) / float64(cols)
	border := "1"
	if n.Borderless {
		border = ""
	}
	p.Ln(2)
	for i, r := range n.Rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		p.SetFont(h.family, style, 11)
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(r) {
				cell = plain(r[c])
			}
			p.CellFormat(cw, 7, h.tr(cell), border, 0, "L", false, 0, "")
		}
		p.Ln(-1)
	}
	p.Ln(3)
}

func (h *handout) columns(n deck.ColumnsNode) {
	if len(n.Columns) == 0 {
		return
	}
	p := h.pdf
	pageW, _ := p.GetPageSize()
	left, _, right, _ := p.GetMargins()
	gap := 6.0
	cw := (pageW - left - right - gap*float64(len(n.Columns)-1)) / float64(len(n.Columns))
	top := p.GetY()
	bottom := top
	for i, col := range n.Columns {
		x := left + float64(i)*(cw+gap)
		p.SetLeftMargin(x)
		p.SetRightMargin(pageW - x - cw)
		p.SetXY(x, top)
		h.text(col, align(columnStyle(n, i), "L"))
		bottom = max(bottom, p.GetY())
	}
	p.SetLeftMargin(left)
	p.SetRightMargin(right)
	p.SetXY(left, bottom)
}

func columnStyle(n deck.ColumnsNode, i int) *deck.BlockStyle {
	if i < len(n.ColumnStyles) && n.ColumnStyles[i] != nil {
		return n.ColumnStyles[i]
	}
	return n.Style
}

var imageTypes = map[string]string{"image/jpeg": "JPG", "image/png": "PNG", "image/gif": "GIF"}

func (h *handout) image(n deck.ImageNode) {
	p := h.pdf
	data, typ, err := h.loadImage(n.Src)
	if err != nil {
		h.log.Warn("image skipped", slog.String("src", n.Src), slog.Any("err", err))
		p.SetFont(h.family, "I", 11)
		p.MultiCell(0, 6, h.tr("[image: "+n.Src+"]"), "", "L", false)
		return
	}
	h.imgs++
	name := fmt.Sprintf("img%d", h.imgs)
	opt := gofpdf.ImageOptions{ImageType: typ, ReadDpi: false}
	info := p.RegisterImageOptionsReader(name, opt, bytes.NewReader(data))
	if info == nil || p.Err() {
		return
	}
	pageW, _ := p.GetPageSize()
	left, _, right, _ := p.GetMargins()
	maxW := (pageW - left - right) * 0.6

	w, ht := float64(n.Width)*pxToMM, float64(n.Height)*pxToMM
	ratio := info.Height() / info.Width()
	switch {
	case w == 0 && ht == 0:
		w = min(maxW, 120)
		ht = w * ratio
	case w == 0:
		w = ht / ratio
	case ht == 0:
		ht = w * ratio
	}
	p.ImageOptions(name, p.GetX(), p.GetY(), w, ht, true, opt, 0, "")
	p.Ln(2)
}

// loadImage returns bytes gofpdf can embed. Formats it cannot read are
// converted to JPEG.
func (h *handout) loadImage(src string) ([]byte, string, error) {
	resolved := src
	if h.opts.Resolver != nil {
		resolved = h.opts.Resolver.Resolve(src)
	}
	var data []byte
	var mime string
	if strings.HasPrefix(resolved, "data:") {
		var err error
		if data, mime, err = assets.DecodeDataURL(resolved); err != nil {
			return nil, "", err
		}
	} else {
		if strings.Contains(resolved, "://") {
			return nil, "", fmt.Errorf("remote image not embedded")
		}
		path := resolved
		if !filepath.IsAbs(path) && h.opts.BaseDir != "" {
			path = filepath.Join(h.opts.BaseDir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		data = b
	}
	if typ, ok := imageTypes[mime]; ok {
		return data, typ, nil
	}
	if typ, ok := imageTypes[assets.SniffMIME(data)]; ok {
		return data, typ, nil
	}
	jpg, err := assets.Compress(data)
	if err != nil {
		return nil, "", err
	}
	return jpg, "JPG", nil
}
