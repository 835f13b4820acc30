// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package console writes styled status lines. Styles are bound to the
// destination writer, so output that is not a terminal (pipes, files, test
// buffers) is written as plain text.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Console prints status lines to Out and warnings to Err.
type Console struct {
	Out io.Writer
	Err io.Writer

	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

// New returns a Console writing to out and errOut.
func New(out, errOut io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	er := lipgloss.NewRenderer(errOut)
	return &Console{
		Out:     out,
		Err:     errOut,
		success: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("245")),
		warning: er.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// Printf writes an unstyled line to Out.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format+"\n", args...)
}

// Successf writes a success line to Out.
func (c *Console) Successf(format string, args ...any) {
	fmt.Fprintln(c.Out, c.success.Render(fmt.Sprintf(format, args...)))
}

// Failuref writes a failure line to Out, next to the other per-file status lines.
func (c *Console) Failuref(format string, args ...any) {
	fmt.Fprintln(c.Out, c.failure.Render(fmt.Sprintf(format, args...)))
}

// Mutedf writes a de-emphasized line to Out.
func (c *Console) Mutedf(format string, args ...any) {
	fmt.Fprintln(c.Out, c.muted.Render(fmt.Sprintf(format, args...)))
}

// Warnf writes a warning line to Err.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintln(c.Err, c.warning.Render("warning: "+fmt.Sprintf(format, args...)))
}
