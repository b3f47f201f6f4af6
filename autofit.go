package resumd

import (
	"context"
	"math"
	"sync"
	"time"
)

// FitPadding keeps a small gap around the page when fitting it to the viewport.
const FitPadding = 0.98

// DefaultPollInterval is how often AutoFit.Poll retries an unmeasurable layout.
const DefaultPollInterval = 50 * time.Millisecond

// PageGeometry is the first laid-out page's box, its height including the
// vertical margins of the pages container.
type PageGeometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the box the preview is displayed in.
type Viewport struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// FitZoom returns the zoom percent that fits one page into the viewport,
// capped at 100. ok is false when either box has no area.
func FitZoom(page PageGeometry, vp Viewport) (percent int, ok bool) {
	if page.Width <= 0 || page.Height <= 0 || vp.Width <= 0 || vp.Height <= 0 {
		return 0, false
	}

	scale := math.Min(vp.Width/page.Width, vp.Height/page.Height)
	if math.IsInf(scale, 0) || math.IsNaN(scale) {
		return 0, false
	}
	return int(math.Min(100, math.Floor(scale*FitPadding*100))), true
}

// MeasureFunc reports the current page geometry and viewport. Either is nil
// while it cannot be measured yet.
type MeasureFunc func(ctx context.Context) (*PageGeometry, *Viewport, error)

// AutoFit lowers a Zoom once per session so the first page fits the viewport.
// It never raises the zoom.
type AutoFit struct {
	zoom *Zoom

	mu   sync.Mutex
	done bool
}

// NewAutoFit creates an AutoFit bound to z.
func NewAutoFit(z *Zoom) *AutoFit {
	return &AutoFit{zoom: z}
}

// Done reports whether the one-shot fit has been consumed.
func (a *AutoFit) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Apply computes the fit zoom and sets it if positive and lower than the
// current zoom. The latch closes on the first measurable call whether or not
// the zoom changed. It reports whether the zoom was lowered.
func (a *AutoFit) Apply(page PageGeometry, vp Viewport) bool {
	fit, ok := FitZoom(page, vp)
	if !ok {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return false
	}
	a.done = true

	if fit > 0 && fit < a.zoom.Percent() {
		a.zoom.Set(fit)
		return true
	}
	return false
}

// Poll measures every interval until the geometry is measurable and Apply
// has run, or ctx ends. Measure errors are treated as "not measurable yet".
func (a *AutoFit) Poll(ctx context.Context, measure MeasureFunc, interval time.Duration) (applied bool, err error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if a.Done() {
			return false, nil
		}

		page, vp, mErr := measure(ctx)
		if mErr == nil && page != nil && vp != nil {
			if _, ok := FitZoom(*page, *vp); ok {
				return a.Apply(*page, *vp), nil
			}
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
