// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/sheetpress/pkg/types"
)

const separatorWidth = 50

// InputSource supplies the files a batch converts.
type InputSource interface {
	Inputs() ([]string, error)
}

// DirSource finds regular files in Dir whose names start with Prefix and end
// with Ext.
type DirSource struct {
	Dir    string
	Prefix string
	Ext    string
}

// DirSourceFrom builds the discovery source described by cfg.
func DirSourceFrom(cfg types.ConversionConfig) DirSource {
	return DirSource{Dir: cfg.Dir, Prefix: cfg.Prefix, Ext: cfg.Ext}
}

func (d DirSource) Inputs() ([]string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, d.Prefix) || !strings.HasSuffix(name, d.Ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// ListSource is a fixed list of input paths.
type ListSource []string

func (l ListSource) Inputs() ([]string, error) {
	return append([]string(nil), l...), nil
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int

	// Records holds one entry per input, in processing order.
	Records []types.ConversionRecord
}

// Total returns the number of inputs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any input failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Run converts every input from src in lexicographic order, one at a time,
// and prints per-file status lines and a summary. A failed file never stops
// the batch.
func (c *Converter) Run(ctx context.Context, src InputSource) BatchResult {
	var result BatchResult

	inputs, err := src.Inputs()
	if err != nil {
		c.console.Warnf("%v", err)
	}
	if len(inputs) == 0 {
		c.console.Printf("No cheatsheet text files found.")
		return result
	}
	sort.Strings(inputs)

	separator := strings.Repeat("-", separatorWidth)
	c.console.Printf("Found %d cheatsheet(s) to convert.", len(inputs))
	c.console.Printf("%s", separator)

	for _, input := range inputs {
		c.process(ctx, input, c.OutputPath(input), &result)
	}

	c.console.Printf("%s", separator)
	summary := fmt.Sprintf("Completed: %d successful, %d failed", result.Converted, result.Failed)
	if result.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", result.Skipped)
	}
	c.console.Printf("%s", summary)

	if !result.HasFailures() {
		c.console.Printf("")
		c.console.Successf("✓ All cheatsheets converted successfully!")
	}
	return result
}

// RunFile converts a single input to an explicit output path without the
// batch header and summary. Incremental mode applies as it does in Run.
func (c *Converter) RunFile(ctx context.Context, input, output string) BatchResult {
	var result BatchResult
	c.process(ctx, input, output, &result)
	return result
}

// process skips or converts one input and tallies the outcome.
func (c *Converter) process(ctx context.Context, input, output string, result *BatchResult) {
	if rec, skip := c.unchanged(ctx, input, output); skip {
		c.console.Mutedf("skipped: %s (unchanged)", input)
		c.record(ctx, rec)
		result.Skipped++
		result.Records = append(result.Records, rec)
		return
	}

	rec, ok := c.convertFile(ctx, input, output)
	if ok {
		result.Converted++
	} else {
		result.Failed++
	}
	result.Records = append(result.Records, rec)
}
