package resumd

import (
	"fmt"
	"math"
	"sync"
)

// Zoom defaults.
const (
	DefaultZoom        = 100
	DefaultMinZoom     = 25
	DefaultMaxZoom     = 500
	DefaultWheelFactor = 1.2
)

// zoomSteps is the ascending table In and Out move through.
var zoomSteps = []int{25, 33, 50, 67, 75, 80, 90, 100, 110, 125, 150, 175, 200, 300, 400, 500}

// ZoomSteps returns a copy of the discrete zoom table.
func ZoomSteps() []int {
	return append([]int(nil), zoomSteps...)
}

// ZoomOptions configures a Zoom. Zero fields take the defaults.
type ZoomOptions struct {
	Initial     int
	Min         int
	Max         int
	WheelFactor float64
}

// Validate checks the range and wheel factor. Zero fields are valid.
func (o ZoomOptions) Validate() error {
	lo, hi := o.bounds()
	if lo < 1 || hi < lo {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidZoomRange, lo, hi)
	}
	if o.WheelFactor != 0 && (o.WheelFactor <= 1 || math.IsInf(o.WheelFactor, 0) || math.IsNaN(o.WheelFactor)) {
		return fmt.Errorf("%w: %v (must be greater than 1)", ErrInvalidWheelFactor, o.WheelFactor)
	}
	return nil
}

func (o ZoomOptions) bounds() (lo, hi int) {
	lo, hi = o.Min, o.Max
	if lo == 0 {
		lo = DefaultMinZoom
	}
	if hi == 0 {
		hi = DefaultMaxZoom
	}
	return lo, hi
}

// Zoom is the zoom percentage shared by the preview and its controls.
// It is safe for concurrent use; pass the same handle to every consumer.
type Zoom struct {
	mu       sync.Mutex
	percent  int
	min, max int
	factor   float64

	listeners listeners[int]
}

// NewZoom creates a Zoom. Invalid options fall back to the defaults; call
// ZoomOptions.Validate first to reject them instead.
func NewZoom(opts ZoomOptions) *Zoom {
	if opts.Validate() != nil {
		opts = ZoomOptions{Initial: opts.Initial}
	}
	lo, hi := opts.bounds()

	factor := opts.WheelFactor
	if factor == 0 {
		factor = DefaultWheelFactor
	}
	initial := opts.Initial
	if initial == 0 {
		initial = DefaultZoom
	}

	return &Zoom{
		percent: clampInt(initial, lo, hi),
		min:     lo,
		max:     hi,
		factor:  factor,
	}
}

// Percent returns the current zoom.
func (z *Zoom) Percent() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.percent
}

// Bounds returns the clamp range.
func (z *Zoom) Bounds() (lo, hi int) {
	return z.min, z.max
}

// Set clamps percent to the range and applies it.
func (z *Zoom) Set(percent int) int {
	return z.update(func(int) int { return percent })
}

// In moves to the next step above the current zoom. No-op at the top.
func (z *Zoom) In() int {
	return z.update(func(cur int) int {
		for _, s := range zoomSteps {
			if s > cur && s <= z.max {
				return s
			}
		}
		return cur
	})
}

// Out moves to the previous step below the current zoom. No-op at the bottom.
func (z *Zoom) Out() int {
	return z.update(func(cur int) int {
		for i := len(zoomSteps) - 1; i >= 0; i-- {
			if s := zoomSteps[i]; s < cur && s >= z.min {
				return s
			}
		}
		return cur
	})
}

// Wheel scales the zoom by factor^(-deltaY/100), rounded to the nearest
// integer percent.
func (z *Zoom) Wheel(deltaY float64) int {
	return z.update(func(cur int) int {
		next := math.Round(float64(cur) * math.Pow(z.factor, -deltaY/100))
		if math.IsNaN(next) {
			return cur
		}
		if next > float64(z.max) {
			return z.max
		}
		return int(next)
	})
}

// Subscribe registers fn for zoom changes and returns its cancel function.
// fn runs on the goroutine that changed the zoom and must not block.
func (z *Zoom) Subscribe(fn func(percent int)) (cancel func()) {
	return z.listeners.add(fn)
}

func (z *Zoom) update(next func(cur int) int) int {
	z.mu.Lock()
	prev := z.percent
	z.percent = clampInt(next(prev), z.min, z.max)
	cur := z.percent
	z.mu.Unlock()

	if cur != prev {
		z.listeners.emit(cur)
	}
	return cur
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
