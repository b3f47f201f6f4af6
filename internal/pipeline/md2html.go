package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// Sanitizer filters converted HTML. *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(s string) string
}

// ConverterOptions tunes the Goldmark instance.
type ConverterOptions struct {
	HardWraps bool      // treat single newlines as <br>
	Sanitizer Sanitizer // applied to the rendered fragment when non-nil
}

// GoldmarkConverter converts Markdown to an HTML fragment using goldmark (pure Go).
type GoldmarkConverter struct {
	md        goldmark.Markdown
	sanitizer Sanitizer
}

// NewGoldmarkConverter creates a GoldmarkConverter with GitHub-style block
// extensions and syntax highlighting.
//
// Linkify is deliberately absent: bare URLs and email addresses stay plain
// text. Only [text](url) and <url> syntax produce anchors.
func NewGoldmarkConverter(opts ConverterOptions) *GoldmarkConverter {
	htmlOpts := []renderer.Option{
		html.WithUnsafe(), // resume templates rely on inline <div>/<span> blocks
	}
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // CSS classes so user CSS controls colors
				),
			),
		),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &GoldmarkConverter{md: md, sanitizer: opts.Sanitizer}
}

// ToHTML converts Markdown content to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		out := buf.String()
		if c.sanitizer != nil {
			out = c.sanitizer.Sanitize(out)
		}
		done <- result{html: out}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
