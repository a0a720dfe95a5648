// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "sync/atomic"

// MockSignal is a Signal driven by hand. Set fires a notification each time
// it is called, like the platform rotation notification does.
type MockSignal struct {
	current   atomic.Int32
	observers Observers
}

// NewMockSignal creates a mock signal reporting initial.
func NewMockSignal(initial Orientation) *MockSignal {
	m := &MockSignal{}
	m.current.Store(int32(initial))
	return m
}

func (m *MockSignal) Current() Orientation {
	return Orientation(m.current.Load())
}

func (m *MockSignal) Subscribe(fn func(Orientation)) func() {
	return m.observers.Add(fn)
}

// Set changes the reported orientation and notifies subscribers.
func (m *MockSignal) Set(o Orientation) {
	m.current.Store(int32(o))
	m.observers.Notify(o)
}

// Subscribers returns the number of live subscriptions.
func (m *MockSignal) Subscribers() int {
	return m.observers.Len()
}

// Cycle returns the orientation following o in the rotation order used by
// the mock console: portrait, landscapeRight, portraitUpsideDown,
// landscapeLeft, then back to portrait.
func Cycle(o Orientation) Orientation {
	switch o {
	case Portrait:
		return LandscapeRight
	case LandscapeRight:
		return PortraitUpsideDown
	case PortraitUpsideDown:
		return LandscapeLeft
	default:
		return Portrait
	}
}
