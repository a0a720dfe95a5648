package parallax

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relabs-tech/motion_parallax/internal/orientation"
)

// Axis selects one clamped device axis, with sign, as the source of a screen
// axis.
type Axis int

const (
	PlusX Axis = iota
	MinusX
	PlusY
	MinusY
)

func (a Axis) pick(cx, cy float64) float64 {
	switch a {
	case MinusX:
		return -cx
	case PlusY:
		return cy
	case MinusY:
		return -cy
	default:
		return cx
	}
}

func (a Axis) String() string {
	return [...]string{"cx", "-cx", "cy", "-cy"}[a]
}

// Mapping rotates device axes into screen axes for one orientation.
type Mapping struct {
	X Axis
	Y Axis
}

// Identity leaves both axes where they are.
var Identity = Mapping{X: PlusX, Y: PlusY}

func (m Mapping) String() string {
	return fmt.Sprintf("(%s, %s)", m.X, m.Y)
}

// Table is a named remap policy. Orientations without a row use Fallback,
// or produce a zero offset when ZeroFallback is set.
type Table struct {
	Name         string
	Rows         map[orientation.Orientation]Mapping
	Fallback     Mapping
	ZeroFallback bool
}

// Remap returns the screen-relative (x, y) for clamped device axes (cx, cy).
func (t Table) Remap(o orientation.Orientation, cx, cy float64) (x, y float64) {
	m, ok := t.Rows[o]
	if !ok {
		if t.ZeroFallback {
			return 0, 0
		}
		m = t.Fallback
	}
	return m.X.pick(cx, cy), m.Y.pick(cx, cy)
}

func (t Table) String() string {
	keys := make([]orientation.Orientation, 0, len(t.Rows))
	for o := range t.Rows {
		keys = append(keys, o)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var b strings.Builder
	b.WriteString(t.Name)
	for _, o := range keys {
		fmt.Fprintf(&b, " %s=%s", o, t.Rows[o])
	}
	if t.ZeroFallback {
		b.WriteString(" other=zero")
	} else {
		fmt.Fprintf(&b, " other=%s", t.Fallback)
	}
	return b.String()
}

// AccelerometerTable is the remap used with linear acceleration.
var AccelerometerTable = Table{
	Name: "accelerometer",
	Rows: map[orientation.Orientation]Mapping{
		orientation.Portrait:           {X: PlusX, Y: PlusY},
		orientation.PortraitUpsideDown: {X: MinusX, Y: MinusY},
		orientation.LandscapeLeft:      {X: MinusY, Y: MinusX},
		orientation.LandscapeRight:     {X: PlusY, Y: PlusX},
	},
	Fallback: Identity,
}

// GyroscopeTable is the remap used with rotation rate. Rotation about the
// device X axis moves content along screen Y, hence the portrait swap.
var GyroscopeTable = Table{
	Name: "gyroscope",
	Rows: map[orientation.Orientation]Mapping{
		orientation.Portrait:           {X: PlusY, Y: PlusX},
		orientation.PortraitUpsideDown: {X: PlusY, Y: MinusX},
		orientation.LandscapeLeft:      {X: MinusX, Y: MinusY},
		orientation.LandscapeRight:     {X: MinusX, Y: PlusY},
	},
	Fallback: Identity,
}

// ZeroOnUnknown returns a copy of t that emits a zero offset for faceUp,
// faceDown and unknown instead of passing the axes through.
func ZeroOnUnknown(t Table) Table {
	t.Name += "+zero"
	t.ZeroFallback = true
	return t
}

// TableByName resolves "accelerometer" or "gyroscope".
func TableByName(name string) (Table, error) {
	switch name {
	case AccelerometerTable.Name:
		return AccelerometerTable, nil
	case GyroscopeTable.Name:
		return GyroscopeTable, nil
	}
	return Table{}, fmt.Errorf("%w: unknown remap table %q", ErrInvalidConfig, name)
}
