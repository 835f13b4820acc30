// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pdiddy/sheetpress/pkg/types"
)

// printTimeout bounds loading and printing one document.
const printTimeout = 30 * time.Second

// ChromeFactory prints documents with headless Chrome. One browser serves
// every document of a batch; each document gets its own tab.
type ChromeFactory struct {
	layout        types.Layout
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	// startBrowser launches the browser behind browserCtx.
	startBrowser func(ctx context.Context) error
	startOnce    sync.Once
	startErr     error
}

// NewChromeFactory prepares a headless Chrome allocator. The browser is
// started once, by the first Write, and shared by every later tab.
func NewChromeFactory(ctx context.Context, layout types.Layout) *ChromeFactory {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	return &ChromeFactory{
		layout:        layout,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		startBrowser:  func(ctx context.Context) error {
			return chromedp.Run(ctx)
		},
	}
}

// ensureBrowser starts the shared browser on first use. Running the bare
// browser context attaches its Browser, so tabs opened from it reuse the
// process instead of allocating their own.
func (f *ChromeFactory) ensureBrowser() error {
	f.startOnce.Do(func() {
		if err := f.startBrowser(f.browserCtx); err != nil {
			f.startErr = fmt.Errorf("starting chrome: %w", err)
		}
	})
	return f.startErr
}

// tabContext opens a tab on the shared browser. The tab is closed when ctx
// is canceled or printTimeout elapses, whichever comes first.
func (f *ChromeFactory) tabContext(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, printTimeout)
	stop := context.AfterFunc(ctx, cancelTimeout)
	return tabCtx, func() {
		stop()
		cancelTimeout()
		cancelTab()
	}
}

func (f *ChromeFactory) NewBuilder() (Builder, error) {
	return &htmlBuilder{factory: f, layout: f.layout}, nil
}

// Close shuts the browser down.
func (f *ChromeFactory) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}

type htmlNode struct {
	Kind   string
	Text   string
	Lines  []string
	Height float64
}

// htmlBuilder collects nodes and renders them into a single HTML page that
// Chrome prints at the layout's paper size.
type htmlBuilder struct {
	factory *ChromeFactory
	layout  types.Layout
	title   string
	nodes   []htmlNode
}

func (b *htmlBuilder) AddTitle(title string) error {
	b.title = title
	b.nodes = append(b.nodes, htmlNode{Kind: "title", Text: title})
	return nil
}

func (b *htmlBuilder) AddPreformatted(text string) error {
	if strings.ContainsRune(text, 0) {
		return fmt.Errorf("preformatted block contains a NUL byte")
	}
	b.nodes = append(b.nodes, htmlNode{Kind: "pre", Text: text})
	return nil
}

func (b *htmlBuilder) AddParagraph(text string) error {
	text = strings.ReplaceAll(text, "\x00", "")
	b.nodes = append(b.nodes, htmlNode{Kind: "p", Lines: strings.Split(text, "\n")})
	return nil
}

func (b *htmlBuilder) AddSpacer(height float64) {
	b.nodes = append(b.nodes, htmlNode{Kind: "spacer", Height: height})
}

func (b *htmlBuilder) html() (string, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title  string
		Layout types.Layout
		Nodes  []htmlNode
	}{b.title, b.layout, b.nodes})
	if err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.String(), nil
}

func (b *htmlBuilder) Write(ctx context.Context, path string) error {
	doc, err := b.html()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.factory.ensureBrowser(); err != nil {
		return err
	}
	tabCtx, cancel := b.factory.tabContext(ctx)
	defer cancel()

	l := b.layout
	var pdf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPaperWidth(types.ToInches(l.PageWidth)).
				WithPaperHeight(types.ToInches(l.PageHeight)).
				WithMarginLeft(types.ToInches(l.MarginLeft)).
				WithMarginRight(types.ToInches(l.MarginRight)).
				WithMarginTop(types.ToInches(l.MarginTop)).
				WithMarginBottom(types.ToInches(l.MarginBottom)).
				WithPrintBackground(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("printing with chrome: %w", err)
	}
	return os.WriteFile(path, pdf, 0o644)
}

var pageTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: Helvetica, Arial, sans-serif; }
h1 { font-size: {{.Layout.TitleSize}}pt; text-align: center; margin: 0; }
pre { font-family: Courier, monospace; font-size: {{.Layout.CodeSize}}pt; line-height: {{.Layout.CodeLeading}}pt; margin: 0; white-space: pre; }
p { font-size: {{.Layout.BodySize}}pt; line-height: {{.Layout.BodyLeading}}pt; margin: 0; }
</style>
</head>
<body>
{{- range .Nodes}}
{{- if eq .Kind "title"}}
<h1>{{.Text}}</h1>
{{- else if eq .Kind "pre"}}
<pre>{{.Text}}</pre>
{{- else if eq .Kind "p"}}
<p>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
{{- else}}
<div style="height: {{.Height}}pt"></div>
{{- end}}
{{- end}}
</body>
</html>
`))
