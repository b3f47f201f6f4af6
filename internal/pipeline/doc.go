// Package pipeline implements the text stages of the preview pipeline.
//
// Stages, in the order a document edit flows through them:
//   - Line ending normalization and front-matter extraction
//   - Markdown to HTML conversion via Goldmark (no bare-URL autolinking)
//   - Relative asset path rewriting for documents that live on disk
//   - Stylesheet assembly (baseline @page/body reset followed by user CSS)
//   - Print document assembly for PDF export
//
// Pagination is handled separately by the root resumd package, which drives
// the pagination engine inside an isolated headless Chrome page (go-rod).
// This package never touches a browser.
package pipeline
