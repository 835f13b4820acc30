// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sheetpress/pkg/types"
)

// recordingBuilder implements Builder and logs each call. Blocks whose text
// contains failPre or failPara are rejected by the matching method.
type recordingBuilder struct {
	calls    []string
	failPre  string
	failPara string
	titleErr error
}

func (r *recordingBuilder) AddTitle(title string) error {
	if r.titleErr != nil {
		return r.titleErr
	}
	r.calls = append(r.calls, "title:"+title)
	return nil
}

func (r *recordingBuilder) AddPreformatted(text string) error {
	if r.failPre != "" && strings.Contains(text, r.failPre) {
		return errors.New("pre failed")
	}
	r.calls = append(r.calls, "pre:"+text)
	return nil
}

func (r *recordingBuilder) AddParagraph(text string) error {
	if r.failPara != "" && strings.Contains(text, r.failPara) {
		return errors.New("para failed")
	}
	r.calls = append(r.calls, "para:"+text)
	return nil
}

func (r *recordingBuilder) AddSpacer(height float64) {
	r.calls = append(r.calls, "spacer")
}

func (r *recordingBuilder) Write(ctx context.Context, path string) error { return nil }

func twoBlockSheet() types.Sheet {
	return types.Sheet{
		Title: "Python",
		Elements: []types.Element{
			{Kind: types.ElementBlock, Text: "print('a')"},
			{Kind: types.ElementSpacer},
			{Kind: types.ElementBlock, Text: "import os"},
		},
	}
}

func TestRender_Order(t *testing.T) {
	b := &recordingBuilder{}
	out, err := Render(b, twoBlockSheet(), types.DefaultLayout())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"title:Python",
		"spacer",
		"pre:print('a')",
		"spacer",
		"pre:import os",
	}, b.calls)
	assert.Equal(t, 2, out.Blocks)
	assert.Zero(t, out.Fallbacks)
	assert.Empty(t, out.Dropped)
}

func TestRender_Fallbacks(t *testing.T) {
	tests := []struct {
		name          string
		builder       *recordingBuilder
		wantCalls     []string
		wantBlocks    int
		wantFallbacks int
		wantDropped   []int
	}{
		{
			name:          "paragraph fallback",
			builder:       &recordingBuilder{failPre: "import"},
			wantCalls:     []string{"title:Python", "spacer", "pre:print('a')", "spacer", "para:import os"},
			wantBlocks:    2,
			wantFallbacks: 1,
		},
		{
			name:        "block dropped",
			builder:     &recordingBuilder{failPre: "print", failPara: "print"},
			wantCalls:   []string{"title:Python", "spacer", "spacer", "pre:import os"},
			wantBlocks:  1,
			wantDropped: []int{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.builder, twoBlockSheet(), types.DefaultLayout())
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, tt.builder.calls)
			assert.Equal(t, tt.wantBlocks, out.Blocks)
			assert.Equal(t, tt.wantFallbacks, out.Fallbacks)

			var dropped []int
			for _, d := range out.Dropped {
				dropped = append(dropped, d.Index)
				assert.Contains(t, d.Error(), "pre failed")
				assert.Contains(t, d.Error(), "para failed")
			}
			assert.Equal(t, tt.wantDropped, dropped)
		})
	}
}

func TestRender_TitleError(t *testing.T) {
	b := &recordingBuilder{titleErr: errors.New("no font")}
	_, err := Render(b, twoBlockSheet(), types.DefaultLayout())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no font")
}

func TestExpandTabs(t *testing.T) {
	assert.Equal(t, "a       b", ExpandTabs("a\tb", 8))
	assert.Equal(t, "    x\nab  y", ExpandTabs("\tx\nab\ty", 4))
	assert.Equal(t, "a\tb", ExpandTabs("a\tb", 0))
}

func TestNewFactory(t *testing.T) {
	f, err := NewFactory(context.Background(), types.BackendFPDF, types.DefaultLayout())
	require.NoError(t, err)
	assert.NoError(t, f.Close())

	f, err = NewFactory(context.Background(), "", types.DefaultLayout())
	require.NoError(t, err)
	assert.IsType(t, &pdfFactory{}, f)

	_, err = NewFactory(context.Background(), "latex", types.DefaultLayout())
	require.ErrorIs(t, err, ErrNoBackend)
}

func TestPDFBuilder_WritesDocument(t *testing.T) {
	layout := types.DefaultLayout()
	b := newPDFBuilder(layout)

	var elements []types.Element
	for i := 0; i < 120; i++ {
		elements = append(elements,
			types.Element{Kind: types.ElementBlock, Text: "ls -la | grep café\n\tindented → arrow"},
			types.Element{Kind: types.ElementSpacer},
		)
	}
	out, err := Render(b, types.Sheet{Title: "Linux", Elements: elements}, layout)
	require.NoError(t, err)
	assert.Equal(t, 120, out.Blocks)
	assert.Greater(t, b.pdf.PageNo(), 1, "long sheets should paginate")

	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, b.Write(context.Background(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}

func TestPDFBuilder_ErrorTriggersFallback(t *testing.T) {
	layout := types.DefaultLayout()
	b := newPDFBuilder(layout)
	require.NoError(t, b.AddTitle("Go"))

	y := b.pdf.GetY()
	b.pdf.SetError(errors.New("injected"))
	err := b.AddPreformatted("go test ./...\ngo vet ./...")
	require.Error(t, err)
	assert.False(t, b.pdf.Err(), "error state should be cleared")
	assert.Equal(t, y, b.pdf.GetY(), "a rejected block draws no lines")
	assert.NoError(t, b.AddParagraph("go test ./...\ngo vet ./..."))
	assert.Greater(t, b.pdf.GetY(), y)
}

func TestPDFBuilder_PageGeometry(t *testing.T) {
	custom := types.DefaultLayout()
	custom.PageWidth = types.Inches(6)
	custom.PageHeight = types.Inches(9)
	custom.MarginLeft = types.Inches(1)
	custom.MarginRight = types.Inches(0.25)
	custom.MarginTop = types.Inches(1.5)
	custom.MarginBottom = types.Inches(0.75)

	tests := []struct {
		name                     string
		layout                   types.Layout
		width, height            float64
		left, top, right, bottom float64
	}{
		{"default letter", types.DefaultLayout(), 612, 792, 36, 54, 36, 36},
		{"custom", custom, 432, 648, 72, 108, 18, 54},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newPDFBuilder(tt.layout)

			w, h := b.pdf.GetPageSize()
			assert.InDelta(t, tt.width, w, 0.001)
			assert.InDelta(t, tt.height, h, 0.001)

			left, top, right, bottom := b.pdf.GetMargins()
			assert.InDelta(t, tt.left, left, 0.001)
			assert.InDelta(t, tt.top, top, 0.001)
			assert.InDelta(t, tt.right, right, 0.001)
			assert.InDelta(t, tt.bottom, bottom, 0.001)

			auto, margin := b.pdf.GetAutoPageBreak()
			assert.True(t, auto)
			assert.InDelta(t, tt.bottom, margin, 0.001)
		})
	}
}

func TestPDFBuilder_CanceledContext(t *testing.T) {
	b := newPDFBuilder(types.DefaultLayout())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Write(ctx, filepath.Join(t.TempDir(), "x.pdf"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeCP1252(t *testing.T) {
	assert.Equal(t, "caf\xe9", encodeCP1252("café"))
	assert.Equal(t, "caf\xe9", encodeCP1252("cafe\u0301"), "decomposed accents are composed first")
	assert.Equal(t, "a ? b", encodeCP1252("a → b"))
	assert.Equal(t, "\x80", encodeCP1252("€"))
}

func TestHTMLBuilder(t *testing.T) {
	b := &htmlBuilder{layout: types.DefaultLayout()}
	out, err := Render(b, types.Sheet{
		Title: "HTML <tags>",
		Elements: []types.Element{
			{Kind: types.ElementBlock, Text: "<div>\n  & more"},
			{Kind: types.ElementSpacer},
		},
	}, types.DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Blocks)

	doc, err := b.html()
	require.NoError(t, err)
	assert.Contains(t, doc, "<h1>HTML &lt;tags&gt;</h1>")
	assert.Contains(t, doc, "<pre>&lt;div&gt;\n  &amp; more</pre>")
	assert.Contains(t, doc, "font-size: 8pt")
	assert.Contains(t, doc, `<div style="height: 7.2pt"></div>`)
}

func TestHTMLBuilder_NulFallsBackToParagraph(t *testing.T) {
	b := &htmlBuilder{layout: types.DefaultLayout()}
	out, err := Render(b, types.Sheet{
		Title:    "Bin",
		Elements: []types.Element{{Kind: types.ElementBlock, Text: "a\x00b\nc"}},
	}, types.DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Fallbacks)

	doc, err := b.html()
	require.NoError(t, err)
	assert.Contains(t, doc, "<p>ab<br>c</p>")
}

func TestChromeFactory_StartsBrowserOnce(t *testing.T) {
	f := NewChromeFactory(context.Background(), types.DefaultLayout())
	t.Cleanup(func() { f.Close() })

	starts := 0
	f.startBrowser = func(ctx context.Context) error {
		starts++
		return errors.New("no chrome here")
	}

	for i := 0; i < 3; i++ {
		b, err := f.NewBuilder()
		require.NoError(t, err)
		require.NoError(t, b.AddTitle("Go"))
		path := filepath.Join(t.TempDir(), "go.pdf")
		err = b.Write(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "starting chrome")
		assert.NoFileExists(t, path)
	}
	assert.Equal(t, 1, starts, "every document shares one browser start")
}

func TestChromeFactory_TabFollowsCallerContext(t *testing.T) {
	f := NewChromeFactory(context.Background(), types.DefaultLayout())
	t.Cleanup(func() { f.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	tabCtx, closeTab := f.tabContext(ctx)
	defer closeTab()

	_, hasDeadline := tabCtx.Deadline()
	assert.True(t, hasDeadline, "tabs carry the print timeout")
	require.NoError(t, tabCtx.Err())

	cancel()
	select {
	case <-tabCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("canceling the caller context should close the tab")
	}
}
