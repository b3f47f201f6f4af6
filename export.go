package resumd

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/fileutil"
	"github.com/alnah/go-resumd/internal/pipeline"
)

// DefaultTitle names exports of documents without a front-matter title.
const DefaultTitle = "Resume"

// DefaultExportTimeout bounds a single PDF export.
const DefaultExportTimeout = 60 * time.Second

// ExportTitle returns the document title, or DefaultTitle when unset.
func ExportTitle(m Metadata) string {
	if m.Title == "" {
		return DefaultTitle
	}
	return m.Title
}

// ExportFilename returns a file name for an export with the given extension.
func ExportFilename(m Metadata, ext string) string {
	return fileutil.SafeFilename(ExportTitle(m), DefaultTitle) + "." + ext
}

// PrintOptions configures the standalone print document.
type PrintOptions struct {
	Template string        // print template; see assets.PrintTemplate
	Page     *PageSettings // baseline @page rule; nil for defaults
	BaseURL  string        // optional <base href> for served assets
}

// PrintDocument assembles a standalone HTML document for c: the sanitized
// lang, the escaped title, the baseline and user stylesheet, and the body.
func PrintDocument(c Converted, opts PrintOptions) string {
	return pipeline.BuildPrintDocument(opts.Template, pipeline.PrintData{
		Lang:    c.Metadata.Lang,
		Title:   ExportTitle(c.Metadata),
		CSS:     pipeline.BuildStylesheet(opts.Page.pageRule(), c.Document.CSS),
		Body:    c.HTML,
		BaseURL: opts.BaseURL,
	})
}

// WriteZIP writes doc as a ZIP archive holding resume.md and theme.css.
func WriteZIP(w io.Writer, doc Document) error {
	zw := zip.NewWriter(w)
	files := []struct {
		name, content string
	}{
		{assets.MarkdownFile, doc.Markdown},
		{assets.CSSFile, doc.CSS},
	}

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("adding %s: %w", f.name, err)
		}
		if _, err := io.WriteString(fw, f.content); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
	}
	return zw.Close()
}

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, document string) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ PDFRenderer = (*PDFExporter)(nil)

// PDFExporter prints documents through its own headless Chrome. The page
// size comes from the document's @page rule.
type PDFExporter struct {
	timeout time.Duration
	browser browser
	mu      sync.Mutex // one page at a time per browser
}

// NewPDFExporter creates a PDFExporter. Chrome is launched on first use.
func NewPDFExporter(timeout time.Duration) *PDFExporter {
	if timeout <= 0 {
		timeout = DefaultExportTimeout
	}
	return &PDFExporter{timeout: timeout}
}

// RenderPDF loads document from a temp file and prints it.
func (e *PDFExporter) RenderPDF(ctx context.Context, document string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	path, cleanup, err := fileutil.WriteTempFile(document, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer cleanup()

	b, err := e.browser.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	page, err := b.Page(proto.TargetCreateTarget{URL: fileutil.FileURL(path)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := p.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// Close stops the exporter's Chrome.
func (e *PDFExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.browser.close()
}
