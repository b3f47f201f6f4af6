package resumd

import (
	"context"
	"fmt"

	"github.com/alnah/go-resumd/internal/pipeline"
)

// Compile-time interface implementation checks.
var _ pipeline.HTMLConverter = (*pipeline.GoldmarkConverter)(nil)

// Sanitizer filters converted HTML. *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(s string) string
}

// ConverterOption configures a Converter.
type ConverterOption func(*converterConfig)

type converterConfig struct {
	hardWraps bool
	sanitizer Sanitizer
	assets    pipeline.AssetBase
}

// WithHardWraps renders single newlines as <br>.
func WithHardWraps() ConverterOption {
	return func(c *converterConfig) { c.hardWraps = true }
}

// WithSanitizer filters every converted fragment through s.
func WithSanitizer(s Sanitizer) ConverterOption {
	return func(c *converterConfig) { c.sanitizer = s }
}

// WithAssetDir rewrites relative img/a paths against dir. With an empty
// urlPrefix they become file:// URLs, otherwise urlPrefix + relative path.
func WithAssetDir(dir, urlPrefix string) ConverterOption {
	return func(c *converterConfig) {
		c.assets = pipeline.AssetBase{Dir: dir, URLPrefix: urlPrefix}
	}
}

// Converter turns a Markdown body into an HTML fragment. Bare URLs and email
// addresses are never turned into links; only [text](url) and <url> are.
type Converter struct {
	html   pipeline.HTMLConverter
	assets pipeline.AssetBase
}

// NewConverter creates a Converter.
func NewConverter(opts ...ConverterOption) *Converter {
	var cfg converterConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	copts := pipeline.ConverterOptions{HardWraps: cfg.hardWraps}
	if cfg.sanitizer != nil {
		copts.Sanitizer = cfg.sanitizer
	}

	return &Converter{
		html:   pipeline.NewGoldmarkConverter(copts),
		assets: cfg.assets,
	}
}

// ToHTML converts body. The same body always yields the same output.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) ToHTML(ctx context.Context, body string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: internal error: %v", ErrHTMLConversion, r)
		}
	}()

	out, err = c.html.ToHTML(ctx, body)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}

	out, err = pipeline.RewriteRelativePaths(out, c.assets)
	if err != nil {
		return "", fmt.Errorf("%w: rewriting asset paths: %v", ErrHTMLConversion, err)
	}
	return out, nil
}

// NewSanitizer returns the HTML policy used when preview.sanitize is on:
// user-generated content rules that keep class and id attributes.
func NewSanitizer() Sanitizer {
	return pipeline.NewResumePolicy()
}
