package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-resumd/internal/yamlutil"
)

// ErrFrontMatter indicates a front-matter block exists but is not valid YAML.
var ErrFrontMatter = errors.New("invalid front-matter")

// Front-matter delimiters. A block opens with "---" on the first line and
// closes with "---" or YAML's document end marker "...".
const (
	frontMatterDelimiter = "---"
	frontMatterEnd       = "..."
)

// FrontMatter is a document split into its header attributes and body.
type FrontMatter struct {
	Attributes map[string]any // nil when the block is empty or not a mapping
	Body       string
	Present    bool // a complete block was found at the top of the document
}

// SplitFrontMatter separates a leading front-matter block from the Markdown body.
// ok is false when the document does not start with a complete block; in that
// case body is the source unchanged. An opening delimiter without a closing
// one is not a block.
func SplitFrontMatter(source string) (raw, body string, ok bool) {
	src := StripBOM(NormalizeLineEndings(source))

	nl := strings.IndexByte(src, '\n')
	if nl < 0 || trimLine(src[:nl]) != frontMatterDelimiter {
		return "", source, false
	}

	rest := src[nl+1:]
	for offset := 0; offset <= len(rest); {
		end := strings.IndexByte(rest[offset:], '\n')
		line, next := rest[offset:], len(rest)
		if end >= 0 {
			line, next = rest[offset:offset+end], offset+end+1
		}

		if t := trimLine(line); t == frontMatterDelimiter || t == frontMatterEnd {
			return rest[:offset], rest[next:], true
		}
		if end < 0 {
			break
		}
		offset = next
	}

	return "", source, false
}

// ParseFrontMatter splits the document and decodes its front-matter as YAML.
// On a decoding error the returned FrontMatter carries the source as body and
// the error wraps ErrFrontMatter.
func ParseFrontMatter(source string) (FrontMatter, error) {
	raw, body, ok := SplitFrontMatter(source)
	if !ok {
		return FrontMatter{Body: source}, nil
	}

	fm := FrontMatter{Body: body, Present: true}
	if strings.TrimSpace(raw) == "" {
		return fm, nil
	}

	attrs, isMapping, err := yamlutil.DecodeMapping([]byte(raw))
	if err != nil {
		return FrontMatter{Body: source}, fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}
	if isMapping {
		fm.Attributes = attrs
	}
	return fm, nil
}

func trimLine(line string) string {
	return strings.TrimRight(line, " \t")
}
