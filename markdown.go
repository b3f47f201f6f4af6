package resumd

import (
	"strconv"
	"strings"

	"github.com/alnah/go-resumd/internal/pipeline"
)

// Metadata is the document information read from front-matter.
// Empty fields are unset.
type Metadata struct {
	Title string `json:"title,omitempty"`
	Lang  string `json:"lang,omitempty"`
}

// Equal reports whether both title and lang match.
func (m Metadata) Equal(other Metadata) bool {
	return m.Title == other.Title && m.Lang == other.Lang
}

// ParsedMarkdown is a document split into its Markdown body and metadata.
type ParsedMarkdown struct {
	Body     string
	Metadata Metadata
	Error    bool // front-matter was present but could not be decoded
}

// Resolve parses source and, when its front-matter is broken, keeps the
// metadata of prev so a half-typed header does not erase the title.
// Resolve is pure and safe to call on every keystroke.
func Resolve(source string, prev *ParsedMarkdown) ParsedMarkdown {
	next := ParseMetadata(source)
	if next.Error && prev != nil {
		next.Metadata = prev.Metadata
	}
	return next
}

// ParseMetadata parses front-matter without any fallback. On a decode error
// the body is the source verbatim and the metadata is empty.
func ParseMetadata(source string) ParsedMarkdown {
	fm, err := pipeline.ParseFrontMatter(source)
	if err != nil {
		return ParsedMarkdown{Body: source, Error: true}
	}

	return ParsedMarkdown{
		Body: fm.Body,
		Metadata: Metadata{
			Title: coerceString(fm.Attributes["title"]),
			Lang:  coerceString(fm.Attributes["lang"]),
		},
	}
}

// coerceString turns a front-matter scalar into text. Strings are trimmed,
// numbers and booleans are formatted, anything else is dropped.
func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return ""
	}
}
