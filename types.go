package resumd

import (
	"fmt"
	"strings"

	"github.com/alnah/go-resumd/internal/pipeline"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.0
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// MaxFieldSize bounds each Document field (1 MiB).
const MaxFieldSize = 1 << 20

// Document is the editable unit: a Markdown source and its stylesheet.
type Document struct {
	Markdown string `json:"markdown"`
	CSS      string `json:"css"`
}

// Validate checks both fields against MaxFieldSize.
func (d Document) Validate() error {
	if len(d.Markdown) > MaxFieldSize {
		return fmt.Errorf("%w: markdown is %d bytes (max %d)", ErrDocumentTooLarge, len(d.Markdown), MaxFieldSize)
	}
	if len(d.CSS) > MaxFieldSize {
		return fmt.Errorf("%w: css is %d bytes (max %d)", ErrDocumentTooLarge, len(d.CSS), MaxFieldSize)
	}
	return nil
}

// PageSettings configures the baseline @page box. User CSS may override it.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
// Does not mutate - uses case-insensitive comparison.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	if !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

// pageRule maps settings to the CSS keywords of the baseline stylesheet.
func (p *PageSettings) pageRule() pipeline.PageRule {
	if p == nil {
		p = DefaultPageSettings()
	}

	size := strings.ToLower(p.Size)
	if size == PageSizeA4 {
		size = "A4"
	}
	return pipeline.PageRule{
		Size:        size,
		Orientation: strings.ToLower(p.Orientation),
		Margin:      p.Margin,
	}
}

// isValidPageSize checks if size is a known page size (case-insensitive).
func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case PageSizeLetter, PageSizeA4, PageSizeLegal:
		return true
	}
	return false
}

// isValidOrientation checks if orientation is valid (case-insensitive).
func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}
