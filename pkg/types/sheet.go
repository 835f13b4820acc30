// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for sheetpress: the parsed
// sheet model, conversion configuration, and conversion records.
package types

import "time"

// ElementKind distinguishes the flow elements of a sheet body.
type ElementKind int

const (
	// ElementBlock is a run of consecutive non-blank lines.
	ElementBlock ElementKind = iota
	// ElementSpacer is the fixed vertical gap emitted for a blank line.
	ElementSpacer
)

func (k ElementKind) String() string {
	switch k {
	case ElementBlock:
		return "block"
	case ElementSpacer:
		return "spacer"
	default:
		return "unknown"
	}
}

// Element is one item in the body of a sheet.
type Element struct {
	Kind ElementKind `json:"kind" yaml:"kind"`

	// Text holds the block lines joined with "\n". Empty for spacers.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Sheet is a parsed cheatsheet: a title and its ordered body elements.
type Sheet struct {
	Title    string    `json:"title" yaml:"title"`
	Elements []Element `json:"elements" yaml:"elements"`
}

// Blocks returns the text of every block element in order.
func (s Sheet) Blocks() []string {
	var blocks []string
	for _, e := range s.Elements {
		if e.Kind == ElementBlock {
			blocks = append(blocks, e.Text)
		}
	}
	return blocks
}

// ConversionStatus records the outcome of converting one input.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionFailed  ConversionStatus = "failed"
)

// ConversionRecord describes a single conversion attempt.
type ConversionRecord struct {
	// InputPath is the text file that was read.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputPath is the PDF that was (or would have been) written.
	OutputPath string `json:"output_path" yaml:"output_path"`

	Title string `json:"title" yaml:"title"`

	// Blocks counts rendered blocks; Dropped counts blocks that could not be
	// rendered by either the preformatted or the paragraph path.
	Blocks  int `json:"blocks" yaml:"blocks"`
	Dropped int `json:"dropped" yaml:"dropped"`

	Status ConversionStatus `json:"status" yaml:"status"`

	// InputModTime is the input's modification time when it was read.
	InputModTime time.Time `json:"input_mod_time" yaml:"input_mod_time"`

	// ConvertedAt is when the attempt finished.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
