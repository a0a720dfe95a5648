// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/imu"
)

// GravitySignal derives the device orientation from the accelerometer. It
// polls the source and fires a notification whenever the classified
// orientation changes.
type GravitySignal struct {
	src      imu.Source
	interval time.Duration
	logger   *zap.Logger

	current   atomic.Int32
	observers Observers

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewGravitySignal creates a signal that polls src every interval once
// started. Until the first reading the orientation is Unknown.
func NewGravitySignal(src imu.Source, interval time.Duration, logger *zap.Logger) *GravitySignal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GravitySignal{src: src, interval: interval, logger: logger}
}

func (g *GravitySignal) Current() Orientation {
	return Orientation(g.current.Load())
}

func (g *GravitySignal) Subscribe(fn func(Orientation)) func() {
	return g.observers.Add(fn)
}

// Start begins accelerometer acquisition and the polling loop.
func (g *GravitySignal) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return nil
	}
	if err := g.src.Start(imu.Acceleration, g.interval); err != nil {
		return fmt.Errorf("gravity signal: start accelerometer: %w", err)
	}
	g.running = true
	g.done = make(chan struct{})
	g.wg.Add(1)
	go g.loop(g.done)
	return nil
}

// Close stops polling and releases the accelerometer.
func (g *GravitySignal) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	close(g.done)
	g.wg.Wait()
	g.src.Stop(imu.Acceleration)
	g.running = false
}

func (g *GravitySignal) loop(done <-chan struct{}) {
	defer g.wg.Done()
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if s, ok := g.src.Latest(imu.Acceleration); ok {
				g.Feed(s)
			}
		}
	}
}

// Feed classifies one accelerometer sample and notifies on change.
func (g *GravitySignal) Feed(s imu.Sample) {
	o := Classify(s.X, s.Y, s.Z)
	prev := Orientation(g.current.Swap(int32(o)))
	if prev == o {
		return
	}
	g.logger.Debug("gravity orientation",
		zap.Stringer("orientation", o),
		zap.Float64("ax", s.X),
		zap.Float64("ay", s.Y),
		zap.Float64("az", s.Z))
	g.observers.Notify(o)
}
