package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader loads templates and starters from a directory laid out
// like the embedded assets.
type FilesystemLoader struct {
	root string // absolute, symlinks resolved
	fsys fs.FS
}

// NewFilesystemLoader opens root. It must be a readable directory.
func NewFilesystemLoader(root string) (*FilesystemLoader, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBasePath, abs, err)
	}

	return &FilesystemLoader{root: abs, fsys: os.DirFS(abs)}, nil
}

// LoadTemplate reads templates/<name>.html under the root.
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	if err := checkName("template", name); err != nil {
		return "", err
	}
	if err := f.contain(filepath.Join("templates", name+".html")); err != nil {
		return "", err
	}
	return readTemplate(f.fsys, name)
}

// LoadStarter reads starters/<name>/ under the root.
func (f *FilesystemLoader) LoadStarter(name string) (*Starter, error) {
	if err := checkName("starter", name); err != nil {
		return nil, err
	}
	if err := f.contain(filepath.Join("starters", name)); err != nil {
		return nil, err
	}
	return readStarter(f.fsys, name)
}

// contain fails when rel, after following symlinks, lands outside the
// root. Paths that do not exist yet pass; reading them reports not found.
func (f *FilesystemLoader) contain(rel string) error {
	target := filepath.Join(f.root, rel)
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return nil
	}
	back, err := filepath.Rel(f.root, resolved)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s resolves outside %s", ErrPathTraversal, rel, f.root)
	}
	return nil
}

var _ AssetLoader = (*FilesystemLoader)(nil)
