package ingest

import (
	"context"
	"fmt"
	"html"
	"os"
	"regexp"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Renderer turns an HTML document into a PDF file.
type Renderer interface {
	RenderPDF(ctx context.Context, htmlContent string, baseURL string, outPath string) error
}

// ChromeRenderer prints HTML to PDF with a headless Chrome driven by chromedp.
type ChromeRenderer struct {
	Timeout time.Duration
}

// NewChromeRenderer returns a renderer with a generous timeout for large filings.
func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{Timeout: 3 * time.Minute}
}

var headOpen = regexp.MustCompile(`(?i)<head[^>]*>`)

// withBaseURL injects <base href> so relative images and stylesheets resolve against the filing.
func withBaseURL(htmlContent, baseURL string) string {
	if baseURL == "" {
		return htmlContent
	}
	base := fmt.Sprintf(`<base href="%s">`, html.EscapeString(baseURL))
	if loc := headOpen.FindStringIndex(htmlContent); loc != nil {
		return htmlContent[:loc[1]] + base + htmlContent[loc[1]:]
	}
	return "<head>" + base + "</head>" + htmlContent
}

// RenderPDF loads htmlContent into a blank page and prints it to outPath.
func (r *ChromeRenderer) RenderPDF(ctx context.Context, htmlContent string, baseURL string, outPath string) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, r.Timeout)
		defer cancel()
	}

	content := withBaseURL(htmlContent, baseURL)
	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, content).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("PDF conversion failed: %w", err)
	}

	return os.WriteFile(outPath, pdfBuf, 0644)
}
