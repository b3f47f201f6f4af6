// Package watch feeds on-disk resume files into the editor: whenever the
// Markdown or CSS file in a directory changes, both are read back and
// handed to a callback after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period after the last file event.
const DefaultDebounce = 200 * time.Millisecond

// Sentinel errors for watch operations.
var (
	ErrWatch       = errors.New("failed to watch directory")
	ErrEmptyTarget = errors.New("watch needs a directory and a markdown file name")
)

// Files is the pair of file contents read after a change.
type Files struct {
	Markdown string
	CSS      string
}

// Config configures a Watcher.
type Config struct {
	Dir      string
	Markdown string // base name of the Markdown file
	CSS      string // base name of the CSS file; optional
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Watcher watches one directory for changes to the configured files.
type Watcher struct {
	cfg      Config
	watcher  *fsnotify.Watcher
	debounce func(func())
	onChange func(Files)
}

// New creates a Watcher that calls onChange with the current file contents.
// onChange runs on the debounce goroutine, never concurrently with itself
// for a single burst.
func New(cfg Config, onChange func(Files)) (*Watcher, error) {
	if cfg.Dir == "" || cfg.Markdown == "" {
		return nil, ErrEmptyTarget
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatch, err)
	}
	// Watch the directory rather than the files: editors that save by
	// renaming a temp file over the original would otherwise drop the watch.
	if err := w.Add(cfg.Dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrWatch, cfg.Dir, err)
	}

	return &Watcher{
		cfg:      cfg,
		watcher:  w,
		debounce: debounce.New(cfg.Debounce),
		onChange: onChange,
	}, nil
}

// Read returns the current contents of the watched files. A missing CSS
// file reads as empty.
func (w *Watcher) Read() (Files, error) {
	md, err := os.ReadFile(filepath.Join(w.cfg.Dir, w.cfg.Markdown)) // #nosec G304 -- configured path
	if err != nil {
		return Files{}, fmt.Errorf("reading %s: %w", w.cfg.Markdown, err)
	}

	var css []byte
	if w.cfg.CSS != "" {
		css, err = os.ReadFile(filepath.Join(w.cfg.Dir, w.cfg.CSS)) // #nosec G304 -- configured path
		if err != nil && !os.IsNotExist(err) {
			return Files{}, fmt.Errorf("reading %s: %w", w.cfg.CSS, err)
		}
	}
	return Files{Markdown: string(md), CSS: string(css)}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.debounce(w.fire)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.cfg.Logger.Warn().Err(err).Msg("file watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == w.cfg.Markdown || (w.cfg.CSS != "" && name == w.cfg.CSS)
}

func (w *Watcher) fire() {
	files, err := w.Read()
	if err != nil {
		w.cfg.Logger.Warn().Err(err).Msg("reading watched files failed")
		return
	}
	w.cfg.Logger.Debug().Str("dir", w.cfg.Dir).Msg("watched files changed")
	w.onChange(files)
}
