package parallax

import (
	"sync"
	"time"
)

// Lerp interpolates linearly between a and b; t is clamped to [0, 1].
func Lerp(a, b Offset, t float64) Offset {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return Offset{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// Animator smooths emitted offsets for a renderer: each new target is
// approached linearly over one sample interval, starting from wherever the
// previous animation currently is.
type Animator struct {
	duration time.Duration

	mu    sync.Mutex
	from  Offset
	to    Offset
	start time.Time
}

// NewAnimator creates an animator at rest at the zero offset.
func NewAnimator(duration time.Duration) *Animator {
	return &Animator{duration: duration}
}

// SetDuration changes how long future pushes take to settle.
func (a *Animator) SetDuration(d time.Duration) {
	a.mu.Lock()
	a.duration = d
	a.mu.Unlock()
}

// Push starts animating towards target at time now.
func (a *Animator) Push(target Offset, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.from = a.at(now)
	a.to = target
	a.start = now
}

// At returns the animated offset at time now.
func (a *Animator) At(now time.Time) Offset {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.at(now)
}

func (a *Animator) at(now time.Time) Offset {
	if a.start.IsZero() || a.duration <= 0 {
		return a.to
	}
	return Lerp(a.from, a.to, float64(now.Sub(a.start))/float64(a.duration))
}
