// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"sync"
)

// Orientation is the physical rotation of the device relative to gravity.
type Orientation int32

const (
	Unknown Orientation = iota
	Portrait
	PortraitUpsideDown
	LandscapeLeft
	LandscapeRight
	FaceUp
	FaceDown
)

var names = map[Orientation]string{
	Unknown:            "unknown",
	Portrait:           "portrait",
	PortraitUpsideDown: "portraitUpsideDown",
	LandscapeLeft:      "landscapeLeft",
	LandscapeRight:     "landscapeRight",
	FaceUp:             "faceUp",
	FaceDown:           "faceDown",
}

func (o Orientation) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return names[Unknown]
}

// Parse maps a name to an Orientation. Anything unrecognized is Unknown.
func Parse(name string) Orientation {
	for o, n := range names {
		if n == name {
			return o
		}
	}
	return Unknown
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(b []byte) error {
	*o = Parse(string(b))
	return nil
}

// Signal is a push-based source of orientation changes, e.g. the platform
// rotation notification, a gravity classifier or an MQTT topic.
type Signal interface {
	// Current returns the orientation as the signal currently sees it.
	Current() Orientation
	// Subscribe registers fn for every change and returns a func that
	// removes the subscription.
	Subscribe(fn func(Orientation)) (unsubscribe func())
}

// Observers is a list of change callbacks. The zero value is ready to use.
type Observers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Orientation)
}

// Add registers fn and returns its removal func. Removal is idempotent.
func (b *Observers) Add(fn func(Orientation)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fns == nil {
		b.fns = make(map[int]func(Orientation))
	}
	id := b.next
	b.next++
	b.fns[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.fns, id)
		b.mu.Unlock()
	}
}

// Len returns the number of registered callbacks.
func (b *Observers) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.fns)
}

// Notify calls every registered callback with o. Callbacks run outside the lock
// so they may unsubscribe themselves.
func (b *Observers) Notify(o Orientation) {
	b.mu.Lock()
	fns := make([]func(Orientation), 0, len(b.fns))
	for _, fn := range b.fns {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(o)
	}
}

// minGravity is the smallest vector magnitude (in any unit) that is still
// considered a usable gravity reading.
const minGravity = 1e-6

// Classify maps a gravity vector in device coordinates to an orientation.
// Axes follow the handheld convention: +y towards the top edge, +x towards the
// right edge, +z out of the screen. Held upright in portrait the reading is
// roughly (0, -1g, 0); lying face up it is (0, 0, -1g).
func Classify(ax, ay, az float64) Orientation {
	x, y, z := math.Abs(ax), math.Abs(ay), math.Abs(az)
	if math.Sqrt(ax*ax+ay*ay+az*az) < minGravity {
		return Unknown
	}

	switch {
	case z > x && z > y:
		if az < 0 {
			return FaceUp
		}
		return FaceDown
	case y >= x:
		if ay < 0 {
			return Portrait
		}
		return PortraitUpsideDown
	default:
		if ax < 0 {
			return LandscapeLeft
		}
		return LandscapeRight
	}
}
