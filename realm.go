package resumd

import "context"

// Target addresses one pagination pass: the buffer slot it renders into and
// the request it renders. Each pass gets its own container inside the slot.
type Target struct {
	Slot      int
	RequestID uint64
}

// Layout is what a pagination pass produced.
type Layout struct {
	Pages  int
	Height float64
}

// Snapshot is the serialized content of a rendered pass.
type Snapshot struct {
	HTML   string  // paginated pages markup
	Styles string  // stylesheets the engine generated for this pass
	Pages  int     // number of page boxes
	Height float64 // content height in CSS pixels
}

// Realm is an isolated rendering context hosting the pagination engine.
// It owns the two page buffers; only the Scheduler drives it.
//
// Implementations need not support concurrent Paginate calls but must allow
// Measure and Snapshot while a pass is in flight.
type Realm interface {
	// Load creates the realm and loads the engine. It returns once the engine
	// signals readiness, or with an error wrapping ErrEngineLoad.
	Load(ctx context.Context) error

	// Paginate lays html out into a fresh, hidden container for t, styled by css.
	Paginate(ctx context.Context, t Target, html, css string) (Layout, error)

	// Show makes t's container visible and destroys every other container.
	Show(ctx context.Context, t Target) error

	// Discard destroys t's container and any styles it owned.
	Discard(ctx context.Context, t Target) error

	// Snapshot serializes t's container.
	Snapshot(ctx context.Context, t Target) (Snapshot, error)

	// Measure returns t's first page geometry, or nil when no page is laid out.
	Measure(ctx context.Context, t Target) (*PageGeometry, error)

	// Close tears the realm down.
	Close() error
}
