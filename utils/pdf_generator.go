package utils

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"os"
	"time"

	"expensetracker/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(template.New("expense_report.html").Funcs(template.FuncMap{
	"date":  func(t time.Time) string { return t.Format("02-Jan-2006") },
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}).ParseFS(templateFS, "templates/expense_report.html"))

// RenderReportHTML executes the report template.
func RenderReportHTML(report *models.ExpenseReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDFRenderer prints expense reports to A4 PDF with headless Chrome.
type PDFRenderer struct {
	// Timeout bounds a single render. Zero means 30 seconds.
	Timeout time.Duration
}

func (p PDFRenderer) Render(ctx context.Context, report *models.ExpenseReport) ([]byte, error) {
	html, err := RenderReportHTML(report)
	if err != nil {
		return nil, err
	}

	// Create temp HTML file
	tmp, err := os.CreateTemp("", "expense_report_*.html")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(html); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	// Generate PDF with headless Chrome
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate("file://"+tmp.Name()),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).  // A4 width
				WithPaperHeight(11.7). // A4 height
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
