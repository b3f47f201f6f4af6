package main

import "errors"

// Sentinel errors for CLI operations.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrReadMarkdown = errors.New("failed to read markdown file")
	ErrReadCSS      = errors.New("failed to read CSS file")
	ErrWriteOutput  = errors.New("failed to write output")
	ErrFileExists   = errors.New("file already exists")
	ErrListen       = errors.New("failed to listen")
)
