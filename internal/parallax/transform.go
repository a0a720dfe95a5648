package parallax

import (
	"github.com/relabs-tech/motion_parallax/internal/imu"
	"github.com/relabs-tech/motion_parallax/internal/orientation"
)

// Transform scales a raw sample by the configured strength, clamps x and y
// into range and rotates them into screen axes for orientation o. The rotated
// axes are clamped again, since sign flips can leave a range that is not
// symmetric around zero. Z passes through unchanged on 3-axis pipelines and
// is dropped otherwise.
func Transform(s imu.Sample, o orientation.Orientation, cfg Config) Offset {
	cx := cfg.Range.Clamp(s.X * cfg.Strength)
	cy := cfg.Range.Clamp(s.Y * cfg.Strength)

	x, y := cfg.Table.Remap(o, cx, cy)
	off := Offset{X: cfg.Range.Clamp(x), Y: cfg.Range.Clamp(y)}
	if cfg.Axes == 3 {
		off.Z = s.Z
	}
	return off
}
