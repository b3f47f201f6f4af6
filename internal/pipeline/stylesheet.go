package pipeline

import (
	"fmt"
	"strings"
)

// PageRule describes the @page box the pagination engine lays content into.
type PageRule struct {
	Size        string  // CSS page size keyword: "A4", "letter", "legal"
	Orientation string  // "portrait" or "landscape"
	Margin      float64 // inches, applied to all sides
}

// BaselineCSS returns the reset rules placed before user CSS.
// They come first so any user rule with the same specificity wins.
func BaselineCSS(p PageRule) string {
	size := p.Size
	if size == "" {
		size = "A4"
	}
	if p.Orientation != "" {
		size += " " + p.Orientation
	}

	return fmt.Sprintf(`@page {
  size: %s;
  margin: %.2fin;
}
html, body {
  margin: 0;
  padding: 0;
}
`, size, p.Margin)
}

// BuildStylesheet joins the baseline rules and the user stylesheet.
func BuildStylesheet(p PageRule, userCSS string) string {
	var b strings.Builder
	b.WriteString(BaselineCSS(p))
	if userCSS != "" {
		b.WriteString("\n")
		b.WriteString(userCSS)
	}
	return b.String()
}

// SanitizeCSS escapes sequences that could break out of a <style> block.
func SanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
