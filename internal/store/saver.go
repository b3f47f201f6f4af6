package store

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultSaveDelay is how long edits settle before they are written.
const DefaultSaveDelay = 500 * time.Millisecond

// NewHolderID returns a fresh editor identity for Claim and Heartbeat.
func NewHolderID() string {
	return uuid.NewString()
}

// Saver coalesces bursts of edits into a single SaveDocument call.
type Saver struct {
	store    *Store
	log      zerolog.Logger
	debounce func(func())

	writeMu sync.Mutex // held across take and write so saves land in order

	mu      sync.Mutex
	pending *Document
}

// NewSaver creates a Saver that writes delay after the last Save call.
func NewSaver(s *Store, delay time.Duration, log zerolog.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Saver{
		store:    s,
		log:      log,
		debounce: debounce.New(delay),
	}
}

// Save schedules doc to be written. Only the latest document of a burst is kept.
func (sv *Saver) Save(doc Document) {
	sv.mu.Lock()
	sv.pending = &doc
	sv.mu.Unlock()

	sv.debounce(func() {
		if err := sv.Flush(context.Background()); err != nil {
			sv.log.Warn().Err(err).Msg("saving document failed")
		}
	})
}

// Flush writes the pending document now, if any.
func (sv *Saver) Flush(ctx context.Context) error {
	sv.writeMu.Lock()
	defer sv.writeMu.Unlock()

	sv.mu.Lock()
	doc := sv.pending
	sv.pending = nil
	sv.mu.Unlock()

	if doc == nil {
		return nil
	}
	return sv.store.SaveDocument(ctx, *doc)
}
