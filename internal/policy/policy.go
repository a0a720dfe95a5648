// Package policy decides whether motion effects may run at all. Nothing here
// is an error: every condition simply gates sampling on or off.
package policy

// PowerMode reports whether the device is saving power.
type PowerMode interface {
	LowPowerEnabled() bool
}

// MotionPreference reports the reduced-motion accessibility setting.
type MotionPreference interface {
	ReduceMotion() bool
}

// Availability reports whether the motion sensor can be used.
type Availability interface {
	Available() bool
}

// Reason names why motion is disabled.
type Reason string

const (
	Enabled           Reason = ""
	LowPower          Reason = "low_power"
	SensorUnavailable Reason = "sensor_unavailable"
	ReducedMotion     Reason = "reduce_motion"
)

// Gate combines the enablement inputs. Nil inputs never disable motion.
type Gate struct {
	Power      PowerMode
	Preference MotionPreference
	Sensor     Availability
}

// Check returns Enabled when motion may run, or the first reason it may not.
func (g Gate) Check() Reason {
	if g.Power != nil && g.Power.LowPowerEnabled() {
		return LowPower
	}
	if g.Sensor != nil && !g.Sensor.Available() {
		return SensorUnavailable
	}
	if g.Preference != nil && g.Preference.ReduceMotion() {
		return ReducedMotion
	}
	return Enabled
}

// Allowed is shorthand for Check() == Enabled.
func (g Gate) Allowed() bool {
	return g.Check() == Enabled
}

// Fixed is a constant power mode and motion preference, e.g. from config.
type Fixed struct {
	LowPower bool
	Reduce   bool
}

func (f Fixed) LowPowerEnabled() bool { return f.LowPower }
func (f Fixed) ReduceMotion() bool    { return f.Reduce }

// AnyPower is low-power when any of its members is.
type AnyPower []PowerMode

func (a AnyPower) LowPowerEnabled() bool {
	for _, p := range a {
		if p != nil && p.LowPowerEnabled() {
			return true
		}
	}
	return false
}

// AnyPreference requests reduced motion when any of its members does.
type AnyPreference []MotionPreference

func (a AnyPreference) ReduceMotion() bool {
	for _, p := range a {
		if p != nil && p.ReduceMotion() {
			return true
		}
	}
	return false
}
