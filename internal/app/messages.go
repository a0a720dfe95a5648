package app

import (
	"time"

	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/parallax"
)

// OffsetMessage is the JSON payload published for every emitted offset.
type OffsetMessage struct {
	parallax.Offset
	Orientation orientation.Orientation `json:"orientation"`
	// IntervalMS is how long consumers should take to animate to this
	// offset.
	IntervalMS float64   `json:"interval_ms"`
	Time       time.Time `json:"time"`
}

// OrientationMessage is published whenever the tracked orientation changes.
type OrientationMessage struct {
	Orientation orientation.Orientation `json:"orientation"`
	Time        time.Time               `json:"time"`
}
