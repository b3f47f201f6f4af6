package resumd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-resumd/internal/hints"
	"github.com/alnah/go-resumd/internal/pipeline"
)

// DefaultRenderTimeout bounds a single pagination pass.
const DefaultRenderTimeout = 20 * time.Second

// State is the lifecycle state of a Scheduler.
type State int32

// Scheduler states.
const (
	StateUninitialized State = iota
	StateLoadingEngine
	StateIdle
	StateRendering
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoadingEngine:
		return "loading"
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Frame is the visible page set after a swap.
type Frame struct {
	RequestID uint64  `json:"requestId"`
	Pages     int     `json:"pages"`
	Height    float64 `json:"height"`
	HTML      string  `json:"html"`
	Styles    string  `json:"styles"`
}

// Failure describes a pass that did not become visible because it failed.
type Failure struct {
	RequestID uint64
	Err       error
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithRenderTimeout sets the watchdog for a single pass.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) SchedulerOption {
	if d <= 0 {
		panic("resumd: WithRenderTimeout duration must be positive")
	}
	return func(s *Scheduler) { s.timeout = d }
}

// WithPageSettings sets the baseline @page rule placed before user CSS.
func WithPageSettings(p *PageSettings) SchedulerOption {
	return func(s *Scheduler) {
		if p != nil {
			s.page = p
		}
	}
}

// WithSchedulerLogger sets the logger for pass outcomes.
func WithSchedulerLogger(l zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = l }
}

type renderRequest struct {
	id   uint64
	html string
	css  string
}

// Scheduler serializes pagination passes against a Realm.
//
// Render never blocks. At most one pass runs at a time and at most one request
// waits behind it: a newer request replaces the waiting one. A pass becomes
// visible only if it succeeded and no newer request was issued meanwhile, so
// the visible pages always come from one complete pass.
type Scheduler struct {
	realm   Realm
	page    *PageSettings
	timeout time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	state    State
	seq      uint64
	pending  *renderRequest
	visible  int    // slot index of the visible buffer
	shown    uint64 // request ID in the visible buffer, 0 for none
	frame    *Frame
	loadErr  error
	started  bool
	stopping bool
	cancel   context.CancelFunc

	wake      chan struct{}
	ready     chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	frames   listeners[Frame]
	failures listeners[Failure]
	states   listeners[State]
}

// NewScheduler creates a Scheduler driving realm. Call Start to load the engine.
func NewScheduler(realm Realm, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		realm:   realm,
		page:    DefaultPageSettings(),
		timeout: DefaultRenderTimeout,
		log:     zerolog.Nop(),
		wake:    make(chan struct{}, 1),
		ready:   make(chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the engine and runs the worker until ctx ends or Close is called.
// Requests issued before the engine is ready are held, not dropped.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopping {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.run(ctx)
}

// Render queues html and css as the sole pending request and returns its ID.
func (s *Scheduler) Render(html, css string) uint64 {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.pending = &renderRequest{id: id, html: html, css: css}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return id
}

// Wait blocks until the engine is ready. It returns the load error if the
// engine could not be loaded.
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the engine loaded successfully.
func (s *Scheduler) Ready() bool {
	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.loadErr == nil
	default:
		return false
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Latest returns the last issued request ID.
func (s *Scheduler) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Frame returns the visible frame, if any pass has been shown.
func (s *Scheduler) Frame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return Frame{}, false
	}
	return *s.frame, true
}

// Measure returns the visible buffer's first page geometry, or nil before
// anything has been shown.
func (s *Scheduler) Measure(ctx context.Context) (*PageGeometry, error) {
	s.mu.Lock()
	t := Target{Slot: s.visible, RequestID: s.shown}
	s.mu.Unlock()

	if t.RequestID == 0 {
		return nil, nil
	}
	return s.realm.Measure(ctx, t)
}

// Subscribe registers fn for every swap. fn runs on the worker goroutine
// and must not block.
func (s *Scheduler) Subscribe(fn func(Frame)) (cancel func()) {
	return s.frames.add(fn)
}

// OnFailure registers fn for failed passes. fn must not block.
func (s *Scheduler) OnFailure(fn func(Failure)) (cancel func()) {
	return s.failures.add(fn)
}

// OnStateChange registers fn for state transitions. fn must not block.
func (s *Scheduler) OnStateChange(fn func(State)) (cancel func()) {
	return s.states.add(fn)
}

// Close stops the worker, abandoning any pass in flight, and closes the realm.
func (s *Scheduler) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		started, cancel := s.started, s.cancel
		s.mu.Unlock()

		close(s.stop)
		if cancel != nil {
			cancel()
		}
		if started {
			<-s.done
		}
		err = s.realm.Close()
	})
	return err
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.setState(StateLoadingEngine)
	if err := s.realm.Load(ctx); err != nil {
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		close(s.ready)
		s.setState(StateFailed)
		s.log.Error().Err(err).Msg("pagination engine unavailable, preview disabled")
		return
	}
	close(s.ready)
	s.setState(StateIdle)
	s.log.Debug().Msg("pagination engine ready")

	for {
		if req := s.next(); req != nil {
			s.pass(ctx, req)
			continue
		}

		select {
		case <-s.wake:
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// next takes the pending request and moves to RENDERING, or to IDLE when
// nothing is pending.
func (s *Scheduler) next() *renderRequest {
	s.mu.Lock()
	req := s.pending
	s.pending = nil
	s.mu.Unlock()

	select {
	case <-s.stop:
		return nil
	default:
	}

	if req == nil {
		s.setState(StateIdle)
		return nil
	}
	s.setState(StateRendering)
	return req
}

func (s *Scheduler) pass(ctx context.Context, req *renderRequest) {
	s.mu.Lock()
	t := Target{Slot: 1 - s.visible, RequestID: req.id}
	s.mu.Unlock()

	log := s.log.With().Uint64("request_id", t.RequestID).Int("slot", t.Slot).Logger()
	start := time.Now()

	layout, err := s.paginate(ctx, t, req)
	if err != nil {
		s.drop(ctx, t)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("pagination pass failed")
		s.failures.emit(Failure{RequestID: t.RequestID, Err: err})
		return
	}

	if !s.isLatest(t.RequestID) {
		s.drop(ctx, t)
		log.Debug().Dur("elapsed", time.Since(start)).Msg("pagination pass superseded")
		return
	}

	frame, err := s.swap(ctx, t)
	if err != nil {
		s.drop(ctx, t)
		log.Warn().Err(err).Msg("buffer swap failed")
		s.failures.emit(Failure{RequestID: t.RequestID, Err: err})
		return
	}

	log.Debug().Int("pages", layout.Pages).Dur("elapsed", time.Since(start)).Msg("pagination pass shown")
	s.frames.emit(frame)
}

// paginate runs one pass under the watchdog. A pass that outlives it counts
// as failed even if the engine finishes later.
func (s *Scheduler) paginate(ctx context.Context, t Target, req *renderRequest) (Layout, error) {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	css := pipeline.BuildStylesheet(s.page.pageRule(), req.css)
	layout, err := s.realm.Paginate(pctx, t, req.html, css)
	if err != nil && errors.Is(pctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return Layout{}, fmt.Errorf("%w: after %s%s", ErrRenderTimeout, s.timeout, hints.ForTimeout())
	}
	return layout, err
}

// isLatest reports whether id is the newest issued request and newer than
// the visible one.
func (s *Scheduler) isLatest(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id == s.seq && id > s.shown
}

func (s *Scheduler) swap(ctx context.Context, t Target) (Frame, error) {
	snap, err := s.realm.Snapshot(ctx, t)
	if err != nil {
		return Frame{}, err
	}
	if err := s.realm.Show(ctx, t); err != nil {
		return Frame{}, err
	}

	frame := Frame{
		RequestID: t.RequestID,
		Pages:     snap.Pages,
		Height:    snap.Height,
		HTML:      snap.HTML,
		Styles:    snap.Styles,
	}

	s.mu.Lock()
	s.visible = t.Slot
	s.shown = t.RequestID
	s.frame = &frame
	s.mu.Unlock()
	return frame, nil
}

// drop discards an attempt that will never be shown.
func (s *Scheduler) drop(ctx context.Context, t Target) {
	if err := s.realm.Discard(context.WithoutCancel(ctx), t); err != nil {
		s.log.Debug().Err(err).Uint64("request_id", t.RequestID).Msg("discard failed")
	}
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()

	if changed {
		s.states.emit(st)
	}
}
