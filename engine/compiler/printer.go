package compiler

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Printer converts an HTML page to PDF.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// PrinterFunc adapts a function to Printer.
type PrinterFunc func(ctx context.Context, html string) ([]byte, error)

// PrintPDF calls f.
func (f PrinterFunc) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	return f(ctx, html)
}

// ChromePrinter prints with a headless Chrome started per call.
type ChromePrinter struct {
	// ExecPath is the browser binary. Empty lets chromedp search for it.
	ExecPath string
}

// PrintPDF loads html into a blank tab and prints it with backgrounds,
// honoring CSS @page sizes.
func (p *ChromePrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome: %w", err)
	}
	return pdf, nil
}
