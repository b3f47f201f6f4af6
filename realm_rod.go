package resumd

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/alnah/go-resumd/internal/fileutil"
	"github.com/alnah/go-resumd/internal/hints"
)

// DefaultEngineURL is where the pagination engine is loaded from.
const DefaultEngineURL = "https://unpkg.com/pagedjs/dist/paged.js"

// engineURLPlaceholder is replaced in the host template by the engine URL.
const engineURLPlaceholder = "{{ENGINE_URL}}"

// JS entry points exposed by the host document as window.resumd.
const (
	jsEngineSettled = `() => window.resumd !== undefined && (window.resumd.ready || window.resumd.failed !== "")`
	jsEngineFailure = `() => window.resumd.failed`
	jsPaginate      = `(slot, id, html, css) => window.resumd.paginate(slot, id, html, css)`
	jsShow          = `(slot, id) => window.resumd.show(slot, id)`
	jsDiscard       = `(slot, id) => window.resumd.discard(slot, id)`
	jsSnapshot      = `(slot, id) => window.resumd.snapshot(slot, id)`
	jsMeasure       = `(slot, id) => window.resumd.measure(slot, id)`
)

// RodRealmOptions configures a RodRealm.
type RodRealmOptions struct {
	// HostHTML is the host document template. Required unless HostURL is set.
	HostHTML string

	// EngineURL replaces {{ENGINE_URL}} in HostHTML. Defaults to DefaultEngineURL.
	EngineURL string

	// HostURL, when set, is navigated to instead of writing HostHTML to a
	// temp file. Used when the host document is served over HTTP so that
	// served asset paths resolve.
	HostURL string

	Logger *zerolog.Logger
}

// RodRealm is a Realm backed by one headless Chrome page, driven through go-rod.
// The engine is loaded into the page once, in Load.
type RodRealm struct {
	opts    RodRealmOptions
	log     zerolog.Logger
	browser browser

	mu      sync.Mutex
	page    *rod.Page
	cleanup func()
	closed  bool
}

// Compile-time interface check.
var _ Realm = (*RodRealm)(nil)

// NewRodRealm creates a RodRealm. Chrome is not started until Load.
func NewRodRealm(opts RodRealmOptions) *RodRealm {
	if opts.EngineURL == "" {
		opts.EngineURL = DefaultEngineURL
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &RodRealm{opts: opts, log: log}
}

// Load opens the host page and waits until the engine has either loaded or
// reported a load failure.
func (r *RodRealm) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRealmClosed
	}
	if r.page != nil {
		return nil
	}

	b, err := r.browser.connect()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEngineLoad, err)
	}

	url, err := r.hostURL()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineLoad, err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		r.releaseHost()
		return fmt.Errorf("%w: %w: %v", ErrEngineLoad, ErrPageCreate, err)
	}

	if err := r.waitEngine(ctx, page); err != nil {
		_ = page.Close()
		r.releaseHost()
		return err
	}

	r.page = page
	r.log.Debug().Str("engine", r.opts.EngineURL).Msg("render realm loaded")
	return nil
}

func (r *RodRealm) hostURL() (string, error) {
	if r.opts.HostURL != "" {
		return r.opts.HostURL, nil
	}

	path, cleanup, err := fileutil.WriteTempFile(HostDocument(r.opts.HostHTML, r.opts.EngineURL), "html")
	if err != nil {
		return "", err
	}
	r.cleanup = cleanup
	return fileutil.FileURL(path), nil
}

func (r *RodRealm) releaseHost() {
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

func (r *RodRealm) waitEngine(ctx context.Context, page *rod.Page) error {
	p := page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %w: %v", ErrEngineLoad, ErrPageLoad, err)
	}
	if err := p.Wait(rod.Eval(jsEngineSettled)); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineLoad, err)
	}

	res, err := p.Eval(jsEngineFailure)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineLoad, err)
	}
	if msg := res.Value.Str(); msg != "" {
		return fmt.Errorf("%w: %s%s", ErrEngineLoad, msg, hints.ForEngineLoad(r.opts.EngineURL))
	}
	return nil
}

// HostDocument fills the engine URL into a host template. Servers that set
// RodRealmOptions.HostURL serve this document at that URL.
func HostDocument(template, engineURL string) string {
	if engineURL == "" {
		engineURL = DefaultEngineURL
	}
	return strings.ReplaceAll(template, engineURLPlaceholder, html.EscapeString(engineURL))
}

// Paginate renders into a new container for t inside its slot.
func (r *RodRealm) Paginate(ctx context.Context, t Target, html, css string) (Layout, error) {
	res, err := r.eval(ctx, jsPaginate, t.Slot, t.RequestID, html, css)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrPagination, err)
	}
	return Layout{
		Pages:  res.Value.Get("pages").Int(),
		Height: res.Value.Get("height").Num(),
	}, nil
}

// Show makes t visible and removes every other container.
func (r *RodRealm) Show(ctx context.Context, t Target) error {
	_, err := r.eval(ctx, jsShow, t.Slot, t.RequestID)
	return err
}

// Discard removes t's container and styles.
func (r *RodRealm) Discard(ctx context.Context, t Target) error {
	_, err := r.eval(ctx, jsDiscard, t.Slot, t.RequestID)
	return err
}

// Snapshot serializes t's pages and the styles the engine generated for it.
func (r *RodRealm) Snapshot(ctx context.Context, t Target) (Snapshot, error) {
	res, err := r.eval(ctx, jsSnapshot, t.Slot, t.RequestID)
	if err != nil {
		return Snapshot{}, err
	}
	if res.Value.Nil() {
		return Snapshot{}, fmt.Errorf("%w: no container for request %d", ErrPagination, t.RequestID)
	}
	return Snapshot{
		HTML:   res.Value.Get("html").Str(),
		Styles: res.Value.Get("styles").Str(),
		Pages:  res.Value.Get("pages").Int(),
		Height: res.Value.Get("height").Num(),
	}, nil
}

// Measure returns the first page box of t, or nil while none is laid out.
func (r *RodRealm) Measure(ctx context.Context, t Target) (*PageGeometry, error) {
	res, err := r.eval(ctx, jsMeasure, t.Slot, t.RequestID)
	if err != nil {
		return nil, err
	}
	if res.Value.Nil() {
		return nil, nil
	}
	return &PageGeometry{
		Width:  res.Value.Get("width").Num(),
		Height: res.Value.Get("height").Num(),
	}, nil
}

// Close closes the page, removes the host file and stops Chrome.
func (r *RodRealm) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.page != nil {
		_ = r.page.Close()
		r.page = nil
	}
	r.releaseHost()
	return r.browser.close()
}

func (r *RodRealm) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	r.mu.Lock()
	page, closed := r.page, r.closed
	r.mu.Unlock()

	if closed {
		return nil, ErrRealmClosed
	}
	if page == nil {
		return nil, ErrNotLoaded
	}
	return page.Context(ctx).Eval(js, args...)
}
