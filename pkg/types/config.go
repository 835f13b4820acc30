// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Backend identifies the document builder used to produce PDFs.
type Backend string

const (
	BackendFPDF   Backend = "fpdf"
	BackendChrome Backend = "chrome"
)

// Layout holds page geometry and typography. Lengths are in points
// (1 inch = 72 points) unless the field name says otherwise.
type Layout struct {
	// PageWidth and PageHeight give the paper size (default US Letter).
	PageWidth  float64 `json:"page_width" yaml:"page_width"`
	PageHeight float64 `json:"page_height" yaml:"page_height"`

	MarginLeft   float64 `json:"margin_left" yaml:"margin_left"`
	MarginRight  float64 `json:"margin_right" yaml:"margin_right"`
	MarginTop    float64 `json:"margin_top" yaml:"margin_top"`
	MarginBottom float64 `json:"margin_bottom" yaml:"margin_bottom"`

	// TitleSize is the headline font size.
	TitleSize float64 `json:"title_size" yaml:"title_size"`

	// CodeSize and CodeLeading set the monospace block font and line height.
	CodeSize    float64 `json:"code_size" yaml:"code_size"`
	CodeLeading float64 `json:"code_leading" yaml:"code_leading"`

	// BodySize and BodyLeading apply to the paragraph fallback.
	BodySize    float64 `json:"body_size" yaml:"body_size"`
	BodyLeading float64 `json:"body_leading" yaml:"body_leading"`

	// TitleSpacer follows the title; BlockSpacer is emitted for every blank line.
	TitleSpacer float64 `json:"title_spacer" yaml:"title_spacer"`
	BlockSpacer float64 `json:"block_spacer" yaml:"block_spacer"`

	// TabWidth is the number of columns a tab expands to inside blocks.
	TabWidth int `json:"tab_width" yaml:"tab_width"`
}

const pointsPerInch = 72.0

// Inches converts a length in inches to points.
func Inches(in float64) float64 { return in * pointsPerInch }

// ToInches converts a length in points to inches.
func ToInches(pt float64) float64 { return pt / pointsPerInch }

// DefaultLayout returns an 8.5x11in page with 0.5in side and bottom margins,
// a 0.75in top margin, 8pt Courier blocks and an 18pt title.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:    Inches(8.5),
		PageHeight:   Inches(11),
		MarginLeft:   Inches(0.5),
		MarginRight:  Inches(0.5),
		MarginTop:    Inches(0.75),
		MarginBottom: Inches(0.5),
		TitleSize:    18,
		CodeSize:     8,
		CodeLeading:  10,
		BodySize:     10,
		BodyLeading:  12,
		TitleSpacer:  Inches(0.2),
		BlockSpacer:  Inches(0.1),
		TabWidth:     8,
	}
}

// ConversionConfig holds settings for the conversion batch.
type ConversionConfig struct {
	// Dir is the directory searched for input files.
	Dir string `json:"dir" yaml:"dir"`

	// Prefix and Ext select inputs: Dir/Prefix*Ext.
	Prefix string `json:"prefix" yaml:"prefix"`
	Ext    string `json:"ext" yaml:"ext"`

	// DocExt replaces Ext when deriving the default output path.
	DocExt string `json:"doc_ext" yaml:"doc_ext"`

	// Backend selects the document builder: fpdf or chrome.
	Backend Backend `json:"backend" yaml:"backend"`

	// Strict fails a conversion when any block had to be dropped.
	Strict bool `json:"strict" yaml:"strict"`

	// Incremental skips inputs unchanged since their last successful
	// conversion. Requires HistoryPath.
	Incremental bool `json:"incremental" yaml:"incremental"`

	// HistoryPath is the SQLite database recording conversions. Empty disables history.
	HistoryPath string `json:"history_path" yaml:"history_path"`

	Layout Layout `json:"layout" yaml:"layout"`
}

// DefaultConversionConfig returns the zero-flag convention: ./Cheatsheet_*.txt
// converted to PDF with the fpdf backend and no history.
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		Dir:     ".",
		Prefix:  "Cheatsheet_",
		Ext:     ".txt",
		DocExt:  ".pdf",
		Backend: BackendFPDF,
		Layout:  DefaultLayout(),
	}
}
