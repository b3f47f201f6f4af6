package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
)

// Template names.
const (
	HostTemplate   = "host"   // document loaded once into the pagination realm
	PrintTemplate  = "print"  // document printed to PDF on export
	EditorTemplate = "editor" // page served to editor clients
)

// Starter file names, shared with ZIP export and watch mode.
const (
	MarkdownFile = "resume.md"
	CSSFile      = "theme.css"
)

// DefaultStarterName is the starter used for a fresh document.
const DefaultStarterName = "default"

// Starter is a ready-made document a user can begin from.
type Starter struct {
	Name     string
	Markdown string
	CSS      string
}

// AssetLoader defines the contract for loading templates and starters.
type AssetLoader interface {
	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTemplate(name string) (string, error)

	// LoadStarter loads a starter by name.
	// Returns ErrStarterNotFound if the starter doesn't exist and
	// ErrIncompleteStarter if one of its two files is missing.
	LoadStarter(name string) (*Starter, error)
}

// namePattern admits a single path element without dots: "classic",
// "two-column", "my_cv2".
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// checkName rejects names that could address anything but one template
// file or one starter directory.
func checkName(kind, name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidAssetName, kind, name)
	}
	return nil
}

// readTemplate reads templates/<name>.html from fsys. name must have
// passed checkName.
func readTemplate(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, path.Join("templates", name+".html"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	case err != nil:
		return "", fmt.Errorf("%w: template %q: %v", ErrAssetRead, name, err)
	}
	return string(data), nil
}

// readStarter reads starters/<name>/{resume.md,theme.css} from fsys. A
// starter exists when either file does; it is complete when both do.
func readStarter(fsys fs.FS, name string) (*Starter, error) {
	dir := path.Join("starters", name)
	md, mdErr := fs.ReadFile(fsys, path.Join(dir, MarkdownFile))
	css, cssErr := fs.ReadFile(fsys, path.Join(dir, CSSFile))
	mdGone := errors.Is(mdErr, fs.ErrNotExist)
	cssGone := errors.Is(cssErr, fs.ErrNotExist)

	switch {
	case mdGone && cssGone:
		return nil, fmt.Errorf("%w: %q", ErrStarterNotFound, name)
	case mdErr != nil && !mdGone:
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrAssetRead, name, MarkdownFile, mdErr)
	case cssErr != nil && !cssGone:
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrAssetRead, name, CSSFile, cssErr)
	case mdGone:
		return nil, fmt.Errorf("%w: %q missing %s", ErrIncompleteStarter, name, MarkdownFile)
	case cssGone:
		return nil, fmt.Errorf("%w: %q missing %s", ErrIncompleteStarter, name, CSSFile)
	}
	return &Starter{Name: name, Markdown: string(md), CSS: string(css)}, nil
}
