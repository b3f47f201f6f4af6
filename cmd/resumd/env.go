package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout      io.Writer
	Stderr      io.Writer
	AssetLoader assets.AssetLoader // replaced when an asset path is configured

	// GitHubBaseURL overrides the GitHub API root; empty uses api.github.com.
	GitHubBaseURL string

	// NewPDFRenderer builds the renderer for one-off exports.
	NewPDFRenderer func(timeout time.Duration) resumd.PDFRenderer
}

// DefaultEnv returns production environment with embedded assets.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		AssetLoader: assets.NewEmbeddedLoader(),
		NewPDFRenderer: func(timeout time.Duration) resumd.PDFRenderer {
			return resumd.NewPDFExporter(timeout)
		},
	}
}

// assetLoader returns env's loader, layered over basePath when one is set.
func (e *Environment) assetLoader(basePath string) (assets.AssetLoader, error) {
	if basePath == "" {
		return e.AssetLoader, nil
	}
	r, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, err
	}
	return r, nil
}
