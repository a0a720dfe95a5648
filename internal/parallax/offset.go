// Package parallax turns raw motion samples into a clamped,
// orientation-corrected visual offset and emits it at a fixed cadence.
package parallax

import (
	"fmt"
	"math"
)

// Offset is the displacement handed to the presentation layer. X and Y are
// always within the configured Range; Z is only set by 3-axis pipelines.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

func (o Offset) String() string {
	return fmt.Sprintf("x: %6.2f, y: %6.2f, z: %6.2f", o.X, o.Y, o.Z)
}

// Range is the closed interval [Min, Max] an offset axis is clamped to.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Symmetric returns [-r, r].
func Symmetric(r float64) Range {
	return Range{Min: -r, Max: r}
}

// Validate fails when the bounds are not finite or Min > Max.
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("%w: range bounds must be finite, got [%v, %v]", ErrInvalidConfig, r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: range minimum %v exceeds maximum %v", ErrInvalidConfig, r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp limits v to [Min, Max]. NaN has no meaningful position, so it is
// treated as zero before clamping.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	return math.Max(r.Min, math.Min(v, r.Max))
}
