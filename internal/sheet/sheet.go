// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet turns a plain-text cheatsheet into a types.Sheet: it decodes
// the file contents, derives the title from the filename, and segments the
// text into blocks separated by blank lines.
package sheet

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/sheetpress/pkg/types"
)

const bom = "\ufeff"

// Naming holds the filename convention shared by discovery, title derivation
// and output path derivation.
type Naming struct {
	Prefix string
	Ext    string
	DocExt string
}

// NamingFrom extracts the naming convention from a conversion config.
func NamingFrom(cfg types.ConversionConfig) Naming {
	return Naming{Prefix: cfg.Prefix, Ext: cfg.Ext, DocExt: cfg.DocExt}
}

// Title derives the document title from path: the base name without the
// text extension and without the prefix token. Either removal is a no-op
// when the filename does not carry it.
func (n Naming) Title(path string) string {
	base := filepath.Base(path)
	if n.Ext != "" {
		base = strings.TrimSuffix(base, n.Ext)
	}
	if n.Prefix != "" {
		base = strings.TrimPrefix(base, n.Prefix)
	}
	return base
}

// OutputPath returns the default document path for input: the text
// extension replaced by the document extension, or the document extension
// appended when input has no text extension.
func (n Naming) OutputPath(input string) string {
	if n.Ext != "" && strings.HasSuffix(input, n.Ext) {
		return strings.TrimSuffix(input, n.Ext) + n.DocExt
	}
	return input + n.DocExt
}

// ReadFile reads path and decodes it with Decode. Errors are returned as-is
// from the os package and already name the path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(data), nil
}

// Decode converts raw file bytes to text on a best-effort basis. Invalid
// UTF-8 sequences are dropped, a leading byte order mark is removed, and
// CRLF or lone CR line endings become LF.
func Decode(raw []byte) string {
	s := strings.ToValidUTF8(string(raw), "")
	s = strings.TrimPrefix(s, bom)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// IsBlank reports whether line is empty or whitespace only.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Segment splits content into blocks and spacers. Consecutive non-blank lines
// form one block, kept verbatim. Each blank line closes the open block, if any,
// and then contributes one spacer. A block still open at the end of input is
// emitted without a trailing spacer.
func Segment(content string) []types.Element {
	var (
		elements []types.Element
		current  []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		elements = append(elements, types.Element{
			Kind: types.ElementBlock,
			Text: strings.Join(current, "\n"),
		})
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if !IsBlank(line) {
			current = append(current, line)
			continue
		}
		flush()
		elements = append(elements, types.Element{Kind: types.ElementSpacer})
	}
	flush()
	return elements
}

// Parse builds the sheet for the file at path whose decoded text is content.
func (n Naming) Parse(path, content string) types.Sheet {
	return types.Sheet{
		Title:    n.Title(path),
		Elements: Segment(content),
	}
}
