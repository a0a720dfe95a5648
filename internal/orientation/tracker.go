package orientation

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Tracker holds the current device orientation and pushes changes to its
// subscribers. It owns exactly one subscription to the underlying Signal.
type Tracker struct {
	logger    *zap.Logger
	current   atomic.Int32
	observers Observers

	// mu orders the initial seed against notifications; once a notification
	// has been applied the seed is stale and must not overwrite it.
	mu       sync.Mutex
	notified bool

	closeOnce   sync.Once
	unsubscribe func()
}

// NewTracker subscribes to the signal, then seeds itself from the signal's
// current orientation, and follows its change notifications until Close. A
// notification arriving while the tracker is being created is never lost.
func NewTracker(sig Signal, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{logger: logger}
	t.unsubscribe = sig.Subscribe(t.set)

	t.mu.Lock()
	if !t.notified {
		t.current.Store(int32(normalize(sig.Current())))
	}
	t.mu.Unlock()
	return t
}

// Current returns the last known orientation. It never blocks.
func (t *Tracker) Current() Orientation {
	return Orientation(t.current.Load())
}

// Subscribe registers fn for every orientation change.
func (t *Tracker) Subscribe(fn func(Orientation)) (unsubscribe func()) {
	return t.observers.Add(fn)
}

// Close drops the subscription to the underlying signal.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		t.unsubscribe()
	})
}

// normalize maps values outside the enum to Unknown.
func normalize(o Orientation) Orientation {
	if _, ok := names[o]; !ok {
		return Unknown
	}
	return o
}

func (t *Tracker) set(o Orientation) {
	o = normalize(o)
	t.mu.Lock()
	t.notified = true
	prev := Orientation(t.current.Swap(int32(o)))
	t.mu.Unlock()
	if prev == o {
		return
	}
	t.logger.Debug("orientation changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", o))
	t.observers.Notify(o)
}
