// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns cheatsheet text files into PDF documents, one file
// at a time (Converter.ConvertFile) or as a sequential batch (Converter.Run).
// Every failure is contained: callers only ever see a boolean per file and
// a BatchResult per run.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/sheetpress/internal/console"
	"github.com/pdiddy/sheetpress/internal/render"
	"github.com/pdiddy/sheetpress/internal/sheet"
	"github.com/pdiddy/sheetpress/pkg/types"
)

// Recorder persists conversion outcomes and answers incremental queries.
// *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, rec types.ConversionRecord) error
	Unchanged(ctx context.Context, input, output string, modTime time.Time) (bool, error)
}

// ReadError reports an input that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

// Converter converts text inputs with a shared configuration and builder
// factory.
type Converter struct {
	cfg     types.ConversionConfig
	naming  sheet.Naming
	factory render.Factory
	console *console.Console
	history Recorder
	now     func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithHistory attaches a Recorder. Every outcome is recorded, and
// cfg.Incremental skips unchanged inputs.
func WithHistory(r Recorder) Option {
	return func(c *Converter) { c.history = r }
}

// WithClock overrides the time source used for ConvertedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// New creates a Converter that builds documents with factory and reports
// through con.
func New(cfg types.ConversionConfig, factory render.Factory, con *console.Console, opts ...Option) *Converter {
	c := &Converter{
		cfg:     cfg,
		naming:  sheet.NamingFrom(cfg),
		factory: factory,
		console: con,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OutputPath returns the document path used when none is given.
func (c *Converter) OutputPath(input string) string {
	return c.naming.OutputPath(input)
}

// Convert reads input, renders it, and writes the document to output (the
// default output path when empty). The returned record describes the attempt
// whether or not it succeeded. Read failures are returned as *ReadError.
func (c *Converter) Convert(ctx context.Context, input, output string) (types.ConversionRecord, error) {
	if output == "" {
		output = c.OutputPath(input)
	}
	rec := types.ConversionRecord{
		InputPath:  input,
		OutputPath: output,
		Title:      c.naming.Title(input),
		Status:     types.ConversionFailed,
	}
	fail := func(err error) (types.ConversionRecord, error) {
		rec.Error = err.Error()
		rec.ConvertedAt = c.now()
		return rec, err
	}

	if info, err := os.Stat(input); err == nil {
		rec.InputModTime = info.ModTime()
	}
	content, err := sheet.ReadFile(input)
	if err != nil {
		return fail(&ReadError{Path: input, Err: err})
	}

	b, err := c.factory.NewBuilder()
	if err != nil {
		return fail(fmt.Errorf("creating builder: %w", err))
	}

	out, err := render.Render(b, c.naming.Parse(input, content), c.cfg.Layout)
	if err != nil {
		return fail(err)
	}
	rec.Blocks = out.Blocks
	rec.Dropped = len(out.Dropped)
	for _, d := range out.Dropped {
		c.console.Warnf("%s: %v", input, d)
	}
	if c.cfg.Strict && len(out.Dropped) > 0 {
		return fail(fmt.Errorf("%d block(s) could not be rendered", len(out.Dropped)))
	}

	if err := b.Write(ctx, output); err != nil {
		return fail(fmt.Errorf("writing %s: %w", output, err))
	}

	rec.Status = types.ConversionDone
	rec.ConvertedAt = c.now()
	return rec, nil
}

// ConvertFile converts input to output (the default path when empty),
// prints one status line, and reports success. It never returns an error.
func (c *Converter) ConvertFile(ctx context.Context, input, output string) bool {
	_, ok := c.convertFile(ctx, input, output)
	return ok
}

func (c *Converter) convertFile(ctx context.Context, input, output string) (types.ConversionRecord, bool) {
	rec, err := c.Convert(ctx, input, output)
	c.record(ctx, rec)

	if err != nil {
		var re *ReadError
		if errors.As(err, &re) {
			c.console.Failuref("Error reading %s: %v", input, re.Err)
		} else {
			c.console.Failuref("Error generating PDF for %s: %v", input, err)
		}
		return rec, false
	}

	c.console.Successf("✓ Generated: %s", rec.OutputPath)
	return rec, true
}

// unchanged reports whether incremental mode allows skipping input.
func (c *Converter) unchanged(ctx context.Context, input, output string) (types.ConversionRecord, bool) {
	if !c.cfg.Incremental || c.history == nil {
		return types.ConversionRecord{}, false
	}
	info, err := os.Stat(input)
	if err != nil {
		return types.ConversionRecord{}, false
	}
	same, err := c.history.Unchanged(ctx, absPath(input), absPath(output), info.ModTime())
	if err != nil {
		c.console.Warnf("checking history for %s: %v", input, err)
		return types.ConversionRecord{}, false
	}
	if !same {
		return types.ConversionRecord{}, false
	}
	return types.ConversionRecord{
		InputPath:    input,
		OutputPath:   output,
		Title:        c.naming.Title(input),
		Status:       types.ConversionSkipped,
		InputModTime: info.ModTime(),
		ConvertedAt:  c.now(),
	}, true
}

// record stores rec in the history, keyed by absolute paths. Failures to
// record are warnings only.
func (c *Converter) record(ctx context.Context, rec types.ConversionRecord) {
	if c.history == nil {
		return
	}
	rec.InputPath = absPath(rec.InputPath)
	rec.OutputPath = absPath(rec.OutputPath)
	if err := c.history.Record(ctx, rec); err != nil {
		c.console.Warnf("recording history for %s: %v", rec.InputPath, err)
	}
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
