package resumd

import "errors"

// Sentinel errors for library operations.
var (
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Render realm errors.
	ErrEngineLoad    = errors.New("pagination engine failed to load")
	ErrPagination    = errors.New("pagination pass failed")
	ErrRenderTimeout = errors.New("pagination pass timed out")
	ErrRealmClosed   = errors.New("render realm closed")
	ErrNotLoaded     = errors.New("render realm not loaded")

	// Document errors.
	ErrDocumentTooLarge = errors.New("document field exceeds maximum size")
	ErrNothingToExport  = errors.New("no converted document to export")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Zoom validation errors.
	ErrInvalidZoomRange   = errors.New("invalid zoom range")
	ErrInvalidWheelFactor = errors.New("invalid wheel factor")

	// Pool errors.
	ErrPoolClosed = errors.New("exporter pool closed")
)
