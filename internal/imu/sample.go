package imu

import (
	"fmt"
	"sync"
	"time"
)

// SensorKind selects which motion quantity a source reports.
type SensorKind int

const (
	// Acceleration is linear acceleration including gravity.
	Acceleration SensorKind = iota
	// RotationRate is the gyroscope angular rate.
	RotationRate
)

func (k SensorKind) String() string {
	switch k {
	case Acceleration:
		return "acceleration"
	case RotationRate:
		return "rotation_rate"
	default:
		return fmt.Sprintf("SensorKind(%d)", int(k))
	}
}

// ParseSensorKind accepts the names produced by String.
func ParseSensorKind(name string) (SensorKind, error) {
	switch name {
	case "acceleration":
		return Acceleration, nil
	case "rotation_rate":
		return RotationRate, nil
	}
	return 0, fmt.Errorf("unknown sensor kind %q", name)
}

// Sample is one instantaneous raw motion reading.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Source provides raw motion samples on demand.
//
// Start and Stop are paired per caller: every successful Start is matched by
// exactly one Stop. Stop without a prior Start is a no-op.
type Source interface {
	// Available reports whether the sensor hardware exists and is usable.
	Available() bool
	Start(kind SensorKind, interval time.Duration) error
	Stop(kind SensorKind)
	// Latest returns the most recent sample of kind, or false if none has
	// been acquired yet or acquisition of kind is not running.
	Latest(kind SensorKind) (Sample, bool)
}

// Acquisition counts active users per sensor kind so several consumers can
// share one device. The zero value is ready to use.
type Acquisition struct {
	mu    sync.Mutex
	users map[SensorKind]int
}

// Acquire registers a user of kind and reports whether it is the first one.
func (a *Acquisition) Acquire(kind SensorKind) (first bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.users == nil {
		a.users = make(map[SensorKind]int)
	}
	a.users[kind]++
	return a.users[kind] == 1
}

// Release drops a user of kind and reports whether it was the last one.
// Releasing a kind with no users does nothing and returns false.
func (a *Acquisition) Release(kind SensorKind) (last bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.users[kind] == 0 {
		return false
	}
	a.users[kind]--
	return a.users[kind] == 0
}

// Active reports whether kind has at least one user.
func (a *Acquisition) Active(kind SensorKind) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.users[kind] > 0
}

// Any reports whether any kind has a user.
func (a *Acquisition) Any() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range a.users {
		if n > 0 {
			return true
		}
	}
	return false
}
