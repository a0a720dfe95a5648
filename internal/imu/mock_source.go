// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"sync"
	"time"
)

// MockSource generates smoothly changing samples, or fixed ones set with Set.
type MockSource struct {
	start time.Time
	acq   Acquisition

	mu        sync.Mutex
	available bool
	fixed     map[SensorKind]Sample
	starts    map[SensorKind]int
	stops     map[SensorKind]int
}

// NewMockSource creates an available mock source.
func NewMockSource() *MockSource {
	return &MockSource{
		start:     time.Now(),
		available: true,
		fixed:     make(map[SensorKind]Sample),
		starts:    make(map[SensorKind]int),
		stops:     make(map[SensorKind]int),
	}
}

// SetAvailable toggles what Available reports.
func (m *MockSource) SetAvailable(ok bool) {
	m.mu.Lock()
	m.available = ok
	m.mu.Unlock()
}

// Set pins the sample returned for kind.
func (m *MockSource) Set(kind SensorKind, s Sample) {
	m.mu.Lock()
	m.fixed[kind] = s
	m.mu.Unlock()
}

// Starts returns how many times acquisition of kind was started.
func (m *MockSource) Starts(kind SensorKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts[kind]
}

// Stops returns how many times acquisition of kind was stopped.
func (m *MockSource) Stops(kind SensorKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops[kind]
}

// Running reports whether kind is currently being acquired.
func (m *MockSource) Running(kind SensorKind) bool {
	return m.acq.Active(kind)
}

func (m *MockSource) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *MockSource) Start(kind SensorKind, _ time.Duration) error {
	m.acq.Acquire(kind)
	m.mu.Lock()
	m.starts[kind]++
	m.mu.Unlock()
	return nil
}

func (m *MockSource) Stop(kind SensorKind) {
	if !m.acq.Active(kind) {
		return
	}
	m.acq.Release(kind)
	m.mu.Lock()
	m.stops[kind]++
	m.mu.Unlock()
}

func (m *MockSource) Latest(kind SensorKind) (Sample, bool) {
	if !m.acq.Active(kind) {
		return Sample{}, false
	}

	m.mu.Lock()
	s, ok := m.fixed[kind]
	m.mu.Unlock()
	if ok {
		return s, true
	}

	elapsed := time.Since(m.start).Seconds()
	switch kind {
	case Acceleration:
		// gentle sway around upright portrait
		return Sample{
			X: 0.2 * math.Sin(elapsed),
			Y: -1 + 0.1*math.Cos(elapsed*0.7),
			Z: 0.15 * math.Sin(elapsed*0.5),
		}, true
	default:
		return Sample{
			X: 0.8 * math.Sin(elapsed*1.3),
			Y: 0.6 * math.Cos(elapsed*0.9),
			Z: 0.3 * math.Sin(elapsed*0.4),
		}, true
	}
}
