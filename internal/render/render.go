// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render lays out a types.Sheet as a paginated document through a
// narrow Builder interface. Concrete builders bind to a PDF library (fpdf)
// or to headless Chrome.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/sheetpress/pkg/types"
)

// ErrNoBackend is returned by NewFactory for an unrecognized backend name.
var ErrNoBackend = errors.New("unknown backend")

// Builder accumulates document elements and writes the finished document.
// Heights are in points.
type Builder interface {
	// AddTitle adds the headline element.
	AddTitle(title string) error

	// AddPreformatted adds a monospace block with line breaks and spacing kept.
	AddPreformatted(text string) error

	// AddParagraph adds text in the body font with its line breaks kept.
	// It is the fallback when AddPreformatted fails.
	AddParagraph(text string) error

	// AddSpacer adds fixed vertical space.
	AddSpacer(height float64)

	// Write renders the document to path.
	Write(ctx context.Context, path string) error
}

// Factory creates one Builder per document and owns any resources shared
// between documents of a batch.
type Factory interface {
	NewBuilder() (Builder, error)
	Close() error
}

// NewFactory returns the factory for backend. An empty backend selects fpdf.
func NewFactory(ctx context.Context, backend types.Backend, layout types.Layout) (Factory, error) {
	switch backend {
	case "", types.BackendFPDF:
		return &pdfFactory{layout: layout}, nil
	case types.BackendChrome:
		return NewChromeFactory(ctx, layout), nil
	default:
		return nil, fmt.Errorf("%w %q: use %s or %s", ErrNoBackend, backend, types.BackendFPDF, types.BackendChrome)
	}
}

// BlockError reports a block that neither the preformatted nor the
// paragraph path could render. Index is 1-based among the sheet's blocks.
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d dropped: %v", e.Index, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// Outcome summarizes a Render call.
type Outcome struct {
	// Blocks counts blocks that made it into the document.
	Blocks int
	// Fallbacks counts blocks rendered as paragraphs.
	Fallbacks int
	// Dropped lists blocks that were left out.
	Dropped []*BlockError
}

// Render feeds s into b: the title, the title spacer, then every element in
// order. A block is tried as preformatted text, then as a paragraph; when
// both fail it is recorded in Outcome.Dropped and rendering continues. Only a
// title failure aborts.
func Render(b Builder, s types.Sheet, layout types.Layout) (Outcome, error) {
	var out Outcome
	if err := b.AddTitle(s.Title); err != nil {
		return out, fmt.Errorf("adding title: %w", err)
	}
	b.AddSpacer(layout.TitleSpacer)

	index := 0
	for _, e := range s.Elements {
		switch e.Kind {
		case types.ElementSpacer:
			b.AddSpacer(layout.BlockSpacer)
		case types.ElementBlock:
			index++
			text := ExpandTabs(e.Text, layout.TabWidth)
			preErr := b.AddPreformatted(text)
			if preErr == nil {
				out.Blocks++
				continue
			}
			if err := b.AddParagraph(text); err != nil {
				out.Dropped = append(out.Dropped, &BlockError{Index: index, Err: errors.Join(preErr, err)})
				continue
			}
			out.Blocks++
			out.Fallbacks++
		}
	}
	return out, nil
}

// ExpandTabs replaces tabs with spaces up to the next multiple of width,
// counting columns per line. A width below 1 leaves text unchanged.
func ExpandTabs(text string, width int) string {
	if width < 1 || !strings.Contains(text, "\t") {
		return text
	}
	var b strings.Builder
	col := 0
	for _, r := range text {
		switch r {
		case '\t':
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
