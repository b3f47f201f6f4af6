package resumd

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one exporter is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ExporterPool hands out PDF renderers, each backed by its own browser, so
// several exports can print in parallel. Renderers are created lazily on
// first acquire to avoid startup delay.
type ExporterPool struct {
	size      int
	newRender func() PDFRenderer
	renderers []PDFRenderer
	sem       chan PDFRenderer
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewExporterPool creates a pool with capacity for n PDFExporters that use
// timeout for each export.
func NewExporterPool(n int, timeout time.Duration) *ExporterPool {
	return NewExporterPoolWith(n, func() PDFRenderer { return NewPDFExporter(timeout) })
}

// NewExporterPoolWith creates a pool building its renderers with factory.
func NewExporterPoolWith(n int, factory func() PDFRenderer) *ExporterPool {
	if n < 1 {
		n = 1
	}
	if factory == nil {
		panic("resumd: nil factory in NewExporterPoolWith")
	}

	return &ExporterPool{
		size:      n,
		newRender: factory,
		renderers: make([]PDFRenderer, 0, n),
		sem:       make(chan PDFRenderer, n),
	}
}

// Acquire gets a renderer from the pool, creating one if needed.
// Blocks until one is free, ctx ends, or the pool closes.
func (p *ExporterPool) Acquire(ctx context.Context) (PDFRenderer, error) {
	// Try to get an existing renderer (non-blocking)
	select {
	case r, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return r, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		r := p.newRender()
		p.renderers = append(p.renderers, r)
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	// All renderers created, wait for one to be released
	select {
	case r, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a renderer to the pool.
func (p *ExporterPool) Release(r PDFRenderer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- r
}

// Render acquires a renderer, prints document and releases it.
func (p *ExporterPool) Render(ctx context.Context, document string) ([]byte, error) {
	r, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(r)
	return r.RenderPDF(ctx, document)
}

// Close releases all browser resources.
// Returns an aggregated error if multiple renderers fail to close.
func (p *ExporterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	renderers := p.renderers
	p.mu.Unlock()

	var errs []error
	for _, r := range renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ExporterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return max(MinPoolSize, min(MaxPoolSize, n))
}
