package pipeline

import (
	"html"
	"regexp"
	"strings"
)

// Placeholders recognized in the print template.
const (
	placeholderLang  = "{{LANG}}"
	placeholderTitle = "<!--{{TITLE}}-->"
	placeholderCSS   = "/*{{CSS}}*/"
	placeholderBody  = "<!--{{BODY}}-->"
	placeholderBase  = "<!--{{BASE}}-->"
)

// langPattern accepts BCP 47-like tags: "en", "pt-br", "zh-hant-tw".
var langPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PrintData fills the print template.
type PrintData struct {
	Lang    string // sanitized before use; invalid tags are dropped
	Title   string // HTML-escaped before use
	CSS     string
	Body    string // trusted HTML fragment from the converter
	BaseURL string // optional <base href>, for documents whose assets are served over HTTP
}

// SanitizeLang lowercases a language tag and returns "" when it is not a
// plausible tag.
func SanitizeLang(value string) string {
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	if !langPattern.MatchString(lower) {
		return ""
	}
	return lower
}

// BuildPrintDocument substitutes the print template placeholders in a single
// pass, so placeholder text inside the user's CSS or body is left alone.
func BuildPrintDocument(tmpl string, d PrintData) string {
	base := ""
	if d.BaseURL != "" {
		base = `<base href="` + html.EscapeString(d.BaseURL) + `">`
	}

	r := strings.NewReplacer(
		placeholderLang, html.EscapeString(SanitizeLang(d.Lang)),
		placeholderTitle, html.EscapeString(d.Title),
		placeholderCSS, SanitizeCSS(d.CSS),
		placeholderBody, d.Body,
		placeholderBase, base,
	)
	return r.Replace(tmpl)
}
