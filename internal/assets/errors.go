package assets

import "errors"

// Sentinel errors for asset operations.
var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrStarterNotFound   = errors.New("starter not found")
	ErrIncompleteStarter = errors.New("starter missing required file") // one of resume.md, theme.css
	ErrInvalidAssetName  = errors.New("invalid asset name")
	ErrInvalidBasePath   = errors.New("invalid base path")
	ErrAssetRead         = errors.New("failed to read asset")
	ErrPathTraversal     = errors.New("path traversal detected")
)

// notFound reports whether err means the asset is absent, as opposed to
// unreadable or misnamed.
func notFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) || errors.Is(err, ErrStarterNotFound)
}
