package assets

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed templates starters static
var embedded embed.FS

// EmbeddedLoader serves the templates and starters compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadTemplate returns the embedded template name.
func (*EmbeddedLoader) LoadTemplate(name string) (string, error) {
	if err := checkName("template", name); err != nil {
		return "", err
	}
	return readTemplate(embedded, name)
}

// LoadStarter returns the embedded starter name.
func (*EmbeddedLoader) LoadStarter(name string) (*Starter, error) {
	if err := checkName("starter", name); err != nil {
		return nil, err
	}
	return readStarter(embedded, name)
}

// StarterNames lists the embedded starters in lexical order.
func StarterNames() []string {
	entries, err := fs.ReadDir(embedded, "starters")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Static returns the editor's script and stylesheet, rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err) // embedded directory always exists
	}
	return sub
}

var _ AssetLoader = (*EmbeddedLoader)(nil)
