package main

import (
	"errors"
	"os"

	"github.com/alnah/go-resumd"
	"github.com/alnah/go-resumd/internal/assets"
	"github.com/alnah/go-resumd/internal/config"
	"github.com/alnah/go-resumd/internal/github"
	"github.com/alnah/go-resumd/internal/store"
)

// Exit codes for the resumd CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, store unavailable
	ExitBrowser = 4 // Browser/Chrome errors
	ExitNetwork = 5 // Listen or GitHub errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, resumd.ErrBrowserConnect) ||
		errors.Is(err, resumd.ErrPageCreate) ||
		errors.Is(err, resumd.ErrPageLoad) ||
		errors.Is(err, resumd.ErrPDFGeneration) ||
		errors.Is(err, resumd.ErrEngineLoad) {
		return ExitBrowser
	}

	// Network errors (exit 5)
	if errors.Is(err, ErrListen) ||
		errors.Is(err, github.ErrFetch) ||
		errors.Is(err, github.ErrNotFound) ||
		errors.Is(err, github.ErrNotAFile) {
		return ExitNetwork
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, store.ErrOpen) ||
		errors.Is(err, assets.ErrAssetRead) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrFileExists) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, github.ErrMissingRepo) ||
		errors.Is(err, assets.ErrStarterNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, resumd.ErrDocumentTooLarge) ||
		errors.Is(err, resumd.ErrInvalidPageSize) ||
		errors.Is(err, resumd.ErrInvalidOrientation) ||
		errors.Is(err, resumd.ErrInvalidMargin) ||
		errors.Is(err, resumd.ErrInvalidZoomRange) ||
		errors.Is(err, resumd.ErrInvalidWheelFactor) {
		return ExitUsage
	}

	return ExitGeneral
}
