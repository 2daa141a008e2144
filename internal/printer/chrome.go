package printer

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"wildcafe-pos/internal/receipt"
)

const mmPerInch = 25.4

// ChromeRasterizer prints receipt HTML to PDF with headless Chrome.
type ChromeRasterizer struct {
	// ExecPath overrides Chrome auto-detection.
	ExecPath string
	// PageHeightMM is the length of paper fed per receipt.
	PageHeightMM float64
}

func (c *ChromeRasterizer) Rasterize(ctx context.Context, doc receipt.Document) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	width := doc.WidthMM
	if width <= 0 {
		width = 80
	}
	height := c.PageHeightMM
	if height <= 0 {
		height = 297
	}

	var pdf []byte
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc.HTML).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(width / mmPerInch).
				WithPaperHeight(height / mmPerInch).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}
