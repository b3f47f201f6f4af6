package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/config"
	"github.com/alnah/go-resumd/internal/fileutil"
	"github.com/alnah/go-resumd/internal/hints"
)

// mergePageFlags overrides the page config with explicitly set flags.
func mergePageFlags(f pageFlags, p *config.PageConfig) {
	if f.size != "" {
		p.Size = f.size
	}
	if f.orientation != "" {
		p.Orientation = f.orientation
	}
	if f.margin != marginSentinel {
		p.Margin = f.margin
	}
}

// pageSettings converts the page config into validated library settings.
func pageSettings(p config.PageConfig) (*resumd.PageSettings, error) {
	ps := &resumd.PageSettings{
		Size:        strings.ToLower(p.Size),
		Orientation: strings.ToLower(p.Orientation),
		Margin:      p.Margin,
	}
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	return ps, nil
}

// converterOptions builds the Markdown converter options for the preview
// config. assetDir, when set, is served under urlPrefix.
func converterOptions(p config.PreviewConfig, assetDir, urlPrefix string) []resumd.ConverterOption {
	var opts []resumd.ConverterOption
	if p.HardWraps {
		opts = append(opts, resumd.WithHardWraps())
	}
	if p.Sanitize {
		opts = append(opts, resumd.WithSanitizer(resumd.NewSanitizer()))
	}
	if assetDir != "" {
		opts = append(opts, resumd.WithAssetDir(assetDir, urlPrefix))
	}
	return opts
}

// parseDurationFlag parses a duration flag value. Empty means unset.
func parseDurationFlag(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: --%s %q: %v", ErrUsage, name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: --%s must be positive, got %s", ErrUsage, name, d)
	}
	return d, nil
}

// writeDocumentFiles writes markdown and css as resume.md and theme.css
// in dir. Existing files are kept unless force is set.
func writeDocumentFiles(dir string, markdown, css string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v%s", ErrWriteOutput, dir, err, hints.ForOutputDirectory())
	}

	files := []struct{ path, content string }{
		{filepath.Join(dir, assets.MarkdownFile), markdown},
		{filepath.Join(dir, assets.CSSFile), css},
	}
	if !force {
		for _, f := range files {
			if fileutil.FileExists(f.path) {
				return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrFileExists, f.path)
			}
		}
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := fileutil.WriteFileAtomic(f.path, []byte(f.content), 0o644); err != nil {
			return written, fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		written = append(written, f.path)
	}
	return written, nil
}
