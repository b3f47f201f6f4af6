package resumd

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Converted is the last document that made it through conversion. Exports
// are built from it, never from a half-typed edit that failed to convert.
type Converted struct {
	Document Document
	HTML     string
	Metadata Metadata
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger for conversion and auto-fit events.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithFitInterval sets how often the first auto-fit retries a layout that
// cannot be measured yet.
func WithFitInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.fitInterval = d
		}
	}
}

// Session ties one editor to one preview: it resolves and converts every
// edit, hands the result to the Scheduler, and fits the zoom once the first
// page is laid out.
type Session struct {
	conv        *Converter
	sched       *Scheduler
	zoom        *Zoom
	fit         *AutoFit
	log         zerolog.Logger
	fitInterval time.Duration

	updateMu sync.Mutex // serializes Update so requests are issued in edit order

	mu        sync.Mutex
	doc       Document
	parsed    *ParsedMarkdown
	converted *Converted
	viewport  *Viewport

	fitOnce  sync.Once
	unsub    func()
	metadata listeners[Metadata]
}

// NewSession creates a Session. The scheduler is owned by the session from
// now on and closed with it.
func NewSession(conv *Converter, sched *Scheduler, zoom *Zoom, opts ...SessionOption) *Session {
	s := &Session{
		conv:        conv,
		sched:       sched,
		zoom:        zoom,
		fit:         NewAutoFit(zoom),
		log:         zerolog.Nop(),
		fitInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the engine and arms the one-shot auto-fit, which runs after
// the first swap until both the page and the viewport can be measured.
func (s *Session) Start(ctx context.Context) {
	s.unsub = s.sched.Subscribe(func(Frame) {
		s.fitOnce.Do(func() { go s.autoFit(ctx) })
	})
	s.sched.Start(ctx)
}

func (s *Session) autoFit(ctx context.Context) {
	applied, err := s.fit.Poll(ctx, s.measure, s.fitInterval)
	if err != nil {
		return
	}
	if applied {
		s.log.Debug().Int("zoom", s.zoom.Percent()).Msg("zoom fitted to viewport")
	}
}

func (s *Session) measure(ctx context.Context) (*PageGeometry, *Viewport, error) {
	s.mu.Lock()
	vp := s.viewport
	s.mu.Unlock()
	if vp == nil {
		return nil, nil, nil
	}

	page, err := s.sched.Measure(ctx)
	if err != nil {
		return nil, nil, err
	}
	return page, vp, nil
}

// Update resolves, converts and schedules doc. It returns the request ID the
// Scheduler assigned. On a conversion error nothing is scheduled and the
// visible pages stay as they are.
func (s *Session) Update(ctx context.Context, doc Document) (uint64, error) {
	if err := doc.Validate(); err != nil {
		return 0, err
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	s.mu.Lock()
	prev := s.parsed
	s.doc = doc
	s.mu.Unlock()

	parsed := Resolve(doc.Markdown, prev)
	if parsed.Error {
		s.log.Debug().Msg("front-matter invalid, keeping previous metadata")
	}

	out, err := s.conv.ToHTML(ctx, parsed.Body)
	if err != nil {
		s.log.Warn().Err(err).Msg("markdown conversion failed")
		return 0, err
	}

	id := s.sched.Render(out, doc.CSS)

	s.mu.Lock()
	var before Metadata
	if s.converted != nil {
		before = s.converted.Metadata
	}
	changed := s.converted == nil || !before.Equal(parsed.Metadata)
	s.parsed = &parsed
	s.converted = &Converted{Document: doc, HTML: out, Metadata: parsed.Metadata}
	s.mu.Unlock()

	if changed {
		s.metadata.emit(parsed.Metadata)
	}
	return id, nil
}

// Document returns the last document passed to Update.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Metadata returns the metadata of the last converted document.
func (s *Session) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.converted == nil {
		return Metadata{}
	}
	return s.converted.Metadata
}

// Exportable returns the last converted document, or ErrNothingToExport
// before any conversion succeeded.
func (s *Session) Exportable() (Converted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.converted == nil {
		return Converted{}, ErrNothingToExport
	}
	return *s.converted, nil
}

// OnMetadata registers fn for metadata changes. fn must not block.
func (s *Session) OnMetadata(fn func(Metadata)) (cancel func()) {
	return s.metadata.add(fn)
}

// SetViewport records the box the preview is shown in.
func (s *Session) SetViewport(vp Viewport) {
	s.mu.Lock()
	s.viewport = &vp
	s.mu.Unlock()
}

// Zoom returns the session's zoom handle.
func (s *Session) Zoom() *Zoom { return s.zoom }

// Scheduler returns the session's scheduler.
func (s *Session) Scheduler() *Scheduler { return s.sched }

// FitDone reports whether the one-shot auto-fit has run.
func (s *Session) FitDone() bool { return s.fit.Done() }

// Close stops the scheduler and releases the realm.
func (s *Session) Close() error {
	if s.unsub != nil {
		s.unsub()
	}
	return s.sched.Close()
}
