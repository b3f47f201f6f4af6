package pipeline

import (
	"regexp"
	"strings"
)

// byteOrderMark is stripped from the start of documents pasted from editors
// that save UTF-8 with a BOM.
const byteOrderMark = "\uFEFF"

// Line ending normalization
var crlfOrCR = regexp.MustCompile(`\r\n?`)

// NormalizeLineEndings converts \r\n and \r to \n.
func NormalizeLineEndings(content string) string {
	if !strings.ContainsRune(content, '\r') {
		return content
	}
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(content string) string {
	return strings.TrimPrefix(content, byteOrderMark)
}
