package resumd

// Modifiers is the modifier key state carried by a key or wheel event.
type Modifiers struct {
	Ctrl bool `json:"ctrl"`
	Meta bool `json:"meta"`
}

// KeyEvent is a key press forwarded by an editor client.
type KeyEvent struct {
	Key string `json:"key"`
	Modifiers
}

// WheelEvent is a wheel gesture forwarded by an editor client.
type WheelEvent struct {
	DeltaY float64 `json:"deltaY"`
	Modifiers
}

// ShortcutOption configures Shortcuts.
type ShortcutOption func(*Shortcuts)

// WithRequireModifier sets whether gestures need the zoom modifier held.
// Defaults to true.
func WithRequireModifier(require bool) ShortcutOption {
	return func(s *Shortcuts) { s.requireModifier = require }
}

// WithModifierPredicate replaces the default Ctrl-or-Meta test.
func WithModifierPredicate(fn func(Modifiers) bool) ShortcutOption {
	return func(s *Shortcuts) {
		if fn != nil {
			s.predicate = fn
		}
	}
}

// Shortcuts maps keyboard and wheel gestures onto a Zoom.
type Shortcuts struct {
	zoom            *Zoom
	requireModifier bool
	predicate       func(Modifiers) bool
}

// NewShortcuts creates gesture handlers bound to z.
func NewShortcuts(z *Zoom, opts ...ShortcutOption) *Shortcuts {
	s := &Shortcuts{
		zoom:            z,
		requireModifier: true,
		predicate:       func(m Modifiers) bool { return m.Ctrl || m.Meta },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleKey zooms on "+", "=", "Add" (in) and "-", "_", "Subtract" (out).
// It reports whether the event was consumed.
func (s *Shortcuts) HandleKey(e KeyEvent) bool {
	if !s.satisfied(e.Modifiers, nil) {
		return false
	}
	switch e.Key {
	case "+", "=", "Add":
		s.zoom.In()
		return true
	case "-", "_", "Subtract":
		s.zoom.Out()
		return true
	}
	return false
}

// HandleWheel applies a wheel gesture. It reports whether the event was consumed.
func (s *Shortcuts) HandleWheel(e WheelEvent) bool {
	if !s.satisfied(e.Modifiers, nil) {
		return false
	}
	s.zoom.Wheel(e.DeltaY)
	return true
}

// HandleWheelDelta applies a raw delta. A non-nil modifier overrides the
// predicate; nil means no modifier is known to be held.
func (s *Shortcuts) HandleWheelDelta(deltaY float64, modifier *bool) bool {
	if !s.satisfied(Modifiers{}, modifier) {
		return false
	}
	s.zoom.Wheel(deltaY)
	return true
}

func (s *Shortcuts) satisfied(m Modifiers, override *bool) bool {
	if !s.requireModifier {
		return true
	}
	if override != nil {
		return *override
	}
	return s.predicate(m)
}
