// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/sheetpress/pkg/types"
)

const (
	fontTitle = "Helvetica"
	fontBody  = "Helvetica"
	fontCode  = "Courier"

	// titleLeadingExtra is added to the title size to get its line height.
	titleLeadingExtra = 4.0

	creator = "sheetpress"
)

type pdfFactory struct {
	layout types.Layout
}

func (f *pdfFactory) NewBuilder() (Builder, error) {
	return newPDFBuilder(f.layout), nil
}

func (f *pdfFactory) Close() error { return nil }

// pdfBuilder renders with the fpdf core fonts, measuring in points.
type pdfBuilder struct {
	pdf    *fpdf.Fpdf
	layout types.Layout
}

func newPDFBuilder(layout types.Layout) *pdfBuilder {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: layout.PageWidth, Ht: layout.PageHeight},
	})
	pdf.SetMargins(layout.MarginLeft, layout.MarginTop, layout.MarginRight)
	pdf.SetAutoPageBreak(true, layout.MarginBottom)
	pdf.SetCreator(creator, false)
	pdf.AddPage()
	return &pdfBuilder{pdf: pdf, layout: layout}
}

func (b *pdfBuilder) AddTitle(title string) error {
	b.pdf.SetTitle(title, true)
	b.pdf.SetFont(fontTitle, "B", b.layout.TitleSize)
	b.pdf.MultiCell(0, b.layout.TitleSize+titleLeadingExtra, encodeCP1252(title), "", "C", false)
	return b.takeError()
}

// AddPreformatted writes one cell per line without wrapping, so long lines
// run into the right margin the way a preformatted flowable does. Lines are
// encoded and the font is checked before the first cell is drawn, so a
// rejected block leaves nothing on the page for the paragraph fallback to
// repeat.
func (b *pdfBuilder) AddPreformatted(text string) error {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = encodeCP1252(line)
	}
	b.pdf.SetFont(fontCode, "", b.layout.CodeSize)
	if err := b.takeError(); err != nil {
		return err
	}
	for _, line := range lines {
		b.pdf.CellFormat(0, b.layout.CodeLeading, line, "", 1, "L", false, 0, "")
		if b.pdf.Err() {
			break
		}
	}
	return b.takeError()
}

func (b *pdfBuilder) AddParagraph(text string) error {
	b.pdf.SetFont(fontBody, "", b.layout.BodySize)
	b.pdf.MultiCell(0, b.layout.BodyLeading, encodeCP1252(text), "", "L", false)
	return b.takeError()
}

func (b *pdfBuilder) AddSpacer(height float64) {
	b.pdf.Ln(height)
}

func (b *pdfBuilder) Write(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.pdf.OutputFileAndClose(path)
}

// takeError returns and clears the sticky fpdf error so a failed element
// does not poison the rest of the document.
func (b *pdfBuilder) takeError() error {
	if !b.pdf.Err() {
		return nil
	}
	err := b.pdf.Error()
	b.pdf.ClearError()
	return err
}

// encodeCP1252 maps text onto the Windows-1252 code page used by the PDF
// core fonts. Runes are composed first so accented letters survive; runes
// with no mapping become '?'.
func encodeCP1252(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}
