package imu

import (
	"errors"
	"time"
)

// ErrUnavailable is returned by Unavailable.Start.
var ErrUnavailable = errors.New("motion sensor unavailable")

// Unavailable is a Source for devices without a motion sensor.
type Unavailable struct{}

func (Unavailable) Available() bool                       { return false }
func (Unavailable) Start(SensorKind, time.Duration) error { return ErrUnavailable }
func (Unavailable) Stop(SensorKind)                       {}
func (Unavailable) Latest(SensorKind) (Sample, bool)      { return Sample{}, false }
