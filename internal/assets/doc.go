// Package assets provides the HTML documents and starter resumes the server
// and the pagination realm are built from.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - the go:embed copy (defaults)
//	    ├── FilesystemLoader  - a directory with the same layout
//	    └── AssetResolver     - a chain of both, custom first
//
// Both concrete loaders read through io/fs, so templates and starters
// behave the same wherever they come from. AssetResolver moves on to the
// next loader only when an asset is missing; a user can override the print
// template or add a starter and keep everything else.
//
// # Directory Structure
//
//	{basePath}/
//	├── templates/
//	│   ├── host.html            # pagination realm document
//	│   ├── print.html           # PDF export document
//	│   └── editor.html          # browser editor page
//	└── starters/
//	    └── {name}/
//	        ├── resume.md        # starter Markdown
//	        └── theme.css        # starter stylesheet
//
// The editor's script and stylesheet live under static/ and are only served
// from the embedded filesystem.
//
// # Security
//
// Names are single path elements without dots. FilesystemLoader also
// follows symlinks and refuses targets outside its root.
package assets
