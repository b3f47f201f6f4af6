package pipeline

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AssetBase tells RewriteRelativePaths where a document's relative assets live.
type AssetBase struct {
	Dir       string // directory the Markdown file lives in; empty disables rewriting
	URLPrefix string // e.g. "/files/"; empty means absolute file:// URLs
}

// RewriteRelativePaths rewrites relative img[src] and a[href] values in an
// HTML fragment so they resolve outside the document's directory.
//
// With a URLPrefix the value becomes prefix + slash path (served over HTTP);
// without one it becomes an absolute file:// URL for Chrome to load directly.
// Paths escaping Dir, URLs, anchors and absolute paths are left alone.
func RewriteRelativePaths(fragment string, base AssetBase) (string, error) {
	if base.Dir == "" {
		return fragment, nil
	}

	absDir, err := filepath.Abs(base.Dir)
	if err != nil {
		return "", err
	}

	root, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	walk(root, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Img:
			rewriteAttr(n, "src", absDir, base.URLPrefix)
		case atom.A:
			rewriteAttr(n, "href", absDir, base.URLPrefix)
		}
	})

	var buf strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// parseFragment parses HTML in a <body> context and hangs the nodes under a
// synthetic document node for uniform traversal.
func parseFragment(content string) (*html.Node, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func rewriteAttr(n *html.Node, key, absDir, prefix string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}

		absPath := filepath.Join(absDir, attr.Val)
		if !isPathUnderDir(absPath, absDir) {
			continue
		}

		if prefix == "" {
			n.Attr[i].Val = (&url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}).String()
			continue
		}

		rel, err := filepath.Rel(absDir, absPath)
		if err != nil {
			continue
		}
		n.Attr[i].Val = strings.TrimSuffix(prefix, "/") + "/" + (&url.URL{Path: path.Clean(filepath.ToSlash(rel))}).EscapedPath()
	}
}

// isRelativePath reports whether a src/href value points at a local file
// relative to the document.
func isRelativePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "//") {
		return false
	}
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(p) && !strings.HasPrefix(p, "/")
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}
