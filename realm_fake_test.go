package resumd

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRealm is an in-memory Realm. Passes can be held open with gates,
// failed on demand, or left hanging until their context ends.
type fakeRealm struct {
	mu         sync.Mutex
	loadErr    error
	loadGate   chan struct{}
	gates      map[uint64]chan struct{}
	fail       map[uint64]error
	hang       bool
	geometry   *PageGeometry
	containers map[Target]string
	paginated  []uint64
	shown      []uint64
	discarded  []uint64
	closed     bool

	started chan uint64
}

func newFakeRealm() *fakeRealm {
	return &fakeRealm{
		gates:      make(map[uint64]chan struct{}),
		fail:       make(map[uint64]error),
		containers: make(map[Target]string),
		started:    make(chan uint64, 64),
	}
}

// gate holds the pass for id open until the returned channel is closed.
func (r *fakeRealm) gate(id uint64) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.gates[id] = ch
	return ch
}

func (r *fakeRealm) failPass(id uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[id] = err
}

func (r *fakeRealm) Load(ctx context.Context) error {
	r.mu.Lock()
	gate, err := r.loadGate, r.loadErr
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *fakeRealm) Paginate(ctx context.Context, t Target, html, css string) (Layout, error) {
	r.mu.Lock()
	r.paginated = append(r.paginated, t.RequestID)
	gate, hang, err := r.gates[t.RequestID], r.hang, r.fail[t.RequestID]
	r.mu.Unlock()

	r.started <- t.RequestID

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Layout{}, ctx.Err()
		}
	}
	if hang {
		<-ctx.Done()
		return Layout{}, ctx.Err()
	}
	if err != nil {
		return Layout{}, err
	}

	r.mu.Lock()
	r.containers[t] = html
	r.mu.Unlock()
	return Layout{Pages: 1, Height: float64(len(html))}, nil
}

func (r *fakeRealm) Show(_ context.Context, t Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, t.RequestID)
	for k := range r.containers {
		if k != t {
			delete(r.containers, k)
		}
	}
	return nil
}

func (r *fakeRealm) Discard(_ context.Context, t Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = append(r.discarded, t.RequestID)
	delete(r.containers, t)
	return nil
}

func (r *fakeRealm) Snapshot(_ context.Context, t Target) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	html, ok := r.containers[t]
	if !ok {
		return Snapshot{}, ErrPagination
	}
	return Snapshot{HTML: html, Styles: "/* styles */", Pages: 1, Height: float64(len(html))}, nil
}

func (r *fakeRealm) Measure(_ context.Context, t Target) (*PageGeometry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[t]; !ok || r.geometry == nil {
		return nil, nil
	}
	g := *r.geometry
	return &g, nil
}

func (r *fakeRealm) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeRealm) snapshotCalls() (paginated, shown, discarded []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.paginated...),
		append([]uint64(nil), r.shown...),
		append([]uint64(nil), r.discarded...)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitStarted(t *testing.T, r *fakeRealm, want uint64) {
	t.Helper()
	select {
	case id := <-r.started:
		if id != want {
			t.Fatalf("pass started for request %d, want %d", id, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for pass %d to start", want)
	}
}

func collectFrames(s *Scheduler) <-chan Frame {
	ch := make(chan Frame, 16)
	s.Subscribe(func(f Frame) { ch <- f })
	return ch
}

func collectFailures(s *Scheduler) <-chan Failure {
	ch := make(chan Failure, 16)
	s.OnFailure(func(f Failure) { ch <- f })
	return ch
}

func nextFrame(t *testing.T, ch <-chan Frame) Frame {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return Frame{}
	}
}

// concurrencyProbe records the highest number of overlapping passes.
type concurrencyProbe struct {
	*fakeRealm
	inFlight atomic.Int32
	max      atomic.Int32
}

func (r *concurrencyProbe) Paginate(ctx context.Context, t Target, html, css string) (Layout, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		cur := r.max.Load()
		if n <= cur || r.max.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return r.fakeRealm.Paginate(ctx, t, html, css)
}
