package resumd

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// TestZoomOptions_Validate - Range and factor checks
// ---------------------------------------------------------------------------

func TestZoomOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    ZoomOptions
		wantErr error
	}{
		{"zero value uses defaults", ZoomOptions{}, nil},
		{"custom range", ZoomOptions{Min: 50, Max: 200}, nil},
		{"min above max", ZoomOptions{Min: 300, Max: 200}, ErrInvalidZoomRange},
		{"negative min", ZoomOptions{Min: -5}, ErrInvalidZoomRange},
		{"factor of one", ZoomOptions{WheelFactor: 1}, ErrInvalidWheelFactor},
		{"factor below one", ZoomOptions{WheelFactor: 0.5}, ErrInvalidWheelFactor},
		{"custom factor", ZoomOptions{WheelFactor: 1.5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestZoom_Set - Clamping
// ---------------------------------------------------------------------------

func TestZoom_Set(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"in range", 150, 150},
		{"below min", 10, 25},
		{"above max", 900, 500},
		{"at min", 25, 25},
		{"at max", 500, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			z := NewZoom(ZoomOptions{})
			if got := z.Set(tt.input); got != tt.want {
				t.Errorf("Set(%d) = %d, want %d", tt.input, got, tt.want)
			}
			if got := z.Percent(); got != tt.want {
				t.Errorf("Percent() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewZoom_Defaults(t *testing.T) {
	t.Parallel()

	z := NewZoom(ZoomOptions{})
	if got := z.Percent(); got != DefaultZoom {
		t.Errorf("Percent() = %d, want %d", got, DefaultZoom)
	}
	lo, hi := z.Bounds()
	if lo != DefaultMinZoom || hi != DefaultMaxZoom {
		t.Errorf("Bounds() = [%d, %d], want [%d, %d]", lo, hi, DefaultMinZoom, DefaultMaxZoom)
	}
}

func TestNewZoom_InvalidOptionsFallBack(t *testing.T) {
	t.Parallel()

	z := NewZoom(ZoomOptions{Initial: 80, Min: 400, Max: 100})
	lo, hi := z.Bounds()
	if lo != DefaultMinZoom || hi != DefaultMaxZoom {
		t.Errorf("Bounds() = [%d, %d], want defaults", lo, hi)
	}
	if got := z.Percent(); got != 80 {
		t.Errorf("Percent() = %d, want 80", got)
	}
}

func TestNewZoom_InitialClamped(t *testing.T) {
	t.Parallel()

	z := NewZoom(ZoomOptions{Initial: 20, Min: 50, Max: 200})
	if got := z.Percent(); got != 50 {
		t.Errorf("Percent() = %d, want 50", got)
	}
}

// ---------------------------------------------------------------------------
// TestZoom_Steps - In and Out
// ---------------------------------------------------------------------------

func TestZoom_In(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start int
		want  int
	}{
		{"on a step", 100, 110},
		{"between steps", 103, 110},
		{"from min", 25, 33},
		{"at max stays", 500, 500},
		{"just below max", 450, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			z := NewZoom(ZoomOptions{Initial: tt.start})
			if got := z.In(); got != tt.want {
				t.Errorf("In() from %d = %d, want %d", tt.start, got, tt.want)
			}
		})
	}
}

func TestZoom_Out(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start int
		want  int
	}{
		{"on a step", 100, 90},
		{"between steps", 103, 100},
		{"at min stays", 25, 25},
		{"from max", 500, 400},
		{"just above min", 30, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			z := NewZoom(ZoomOptions{Initial: tt.start})
			if got := z.Out(); got != tt.want {
				t.Errorf("Out() from %d = %d, want %d", tt.start, got, tt.want)
			}
		})
	}
}

func TestZoom_StepsRespectCustomRange(t *testing.T) {
	t.Parallel()

	z := NewZoom(ZoomOptions{Initial: 100, Min: 90, Max: 110})
	z.In()
	if got := z.In(); got != 110 {
		t.Errorf("In() past max = %d, want 110", got)
	}
	z.Set(90)
	if got := z.Out(); got != 90 {
		t.Errorf("Out() past min = %d, want 90", got)
	}
}

func TestZoomSteps_ReturnsCopy(t *testing.T) {
	t.Parallel()

	steps := ZoomSteps()
	steps[0] = 1
	if ZoomSteps()[0] != 25 {
		t.Error("ZoomSteps() exposed the internal table")
	}
	if !slices.IsSorted(ZoomSteps()) {
		t.Error("ZoomSteps() is not ascending")
	}
}

// ---------------------------------------------------------------------------
// TestZoom_Wheel - Multiplicative wheel zoom
// ---------------------------------------------------------------------------

func TestZoom_Wheel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		start  int
		deltaY float64
		want   int
	}{
		{"scroll up one notch zooms in", 100, -100, 120},
		{"scroll down one notch zooms out", 100, 100, 83},
		{"zero delta keeps", 100, 0, 100},
		{"half notch", 100, -50, 110},
		{"clamped at max", 480, -300, 500},
		{"clamped at min", 30, 500, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			z := NewZoom(ZoomOptions{Initial: tt.start})
			if got := z.Wheel(tt.deltaY); got != tt.want {
				t.Errorf("Wheel(%v) from %d = %d, want %d", tt.deltaY, tt.start, got, tt.want)
			}
		})
	}
}

func TestZoom_WheelCustomFactor(t *testing.T) {
	t.Parallel()

	z := NewZoom(ZoomOptions{WheelFactor: 2})
	if got := z.Wheel(-100); got != 200 {
		t.Errorf("Wheel(-100) with factor 2 = %d, want 200", got)
	}
}

// ---------------------------------------------------------------------------
// TestZoom_Subscribe - Change notifications
// ---------------------------------------------------------------------------

func TestZoom_Subscribe(t *testing.T) {
	t.Parallel()

	z := NewZoom(ZoomOptions{})
	var got []int
	cancel := z.Subscribe(func(p int) { got = append(got, p) })

	z.Set(150)
	z.Set(150) // unchanged, no notification
	z.In()
	cancel()
	z.Out()

	if want := []int{150, 175}; !slices.Equal(got, want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}
}

func TestZoom_ConcurrentUse(t *testing.T) {
	t.Parallel()

	z := NewZoom(ZoomOptions{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				z.In()
			} else {
				z.Wheel(50)
			}
		}(i)
	}
	wg.Wait()

	lo, hi := z.Bounds()
	if p := z.Percent(); p < lo || p > hi {
		t.Errorf("Percent() = %d outside [%d, %d]", p, lo, hi)
	}
}
