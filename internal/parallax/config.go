package parallax

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/motion_parallax/internal/imu"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// DefaultSampleInterval is the sampling cadence of both presets (30 Hz).
const DefaultSampleInterval = time.Second / 30

// DefaultRange is the general-purpose clamp range.
var DefaultRange = Symmetric(5)

// gyroStrengthFactor scales the user-facing strength of the gyroscope
// pipeline; rotation rates are small compared to the offset range.
const gyroStrengthFactor = 5

// Config is the immutable configuration of a Pipeline.
type Config struct {
	Range          Range
	Strength       float64
	SampleInterval time.Duration
	Sensor         imu.SensorKind
	// Axes is 2 (x, y) or 3 (x, y and a pass-through z).
	Axes  int
	Table Table
}

// AccelerometerConfig is the 2-axis linear acceleration preset.
func AccelerometerConfig() Config {
	return Config{
		Range:          Symmetric(50),
		Strength:       50,
		SampleInterval: DefaultSampleInterval,
		Sensor:         imu.Acceleration,
		Axes:           2,
		Table:          AccelerometerTable,
	}
}

// GyroscopeConfig is the 3-axis rotation rate preset.
func GyroscopeConfig() Config {
	return Config{
		Range:          DefaultRange,
		Strength:       GyroscopeStrength(1),
		SampleInterval: DefaultSampleInterval,
		Sensor:         imu.RotationRate,
		Axes:           3,
		Table:          GyroscopeTable,
	}
}

// GyroscopeStrength converts a user-facing strength into the multiplier the
// gyroscope pipeline applies to rotation rates.
func GyroscopeStrength(s float64) float64 {
	return s * gyroStrengthFactor
}

// ConfigForVariant returns the preset named "accelerometer" or "gyroscope".
func ConfigForVariant(name string) (Config, error) {
	switch name {
	case "accelerometer":
		return AccelerometerConfig(), nil
	case "gyroscope":
		return GyroscopeConfig(), nil
	}
	return Config{}, fmt.Errorf("%w: unknown pipeline variant %q", ErrInvalidConfig, name)
}

// Validate rejects configurations that would corrupt every sample.
func (c Config) Validate() error {
	if err := c.Range.Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.Strength) || math.IsInf(c.Strength, 0) {
		return fmt.Errorf("%w: strength must be finite, got %v", ErrInvalidConfig, c.Strength)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("%w: sample interval must be positive, got %v", ErrInvalidConfig, c.SampleInterval)
	}
	if c.Axes != 2 && c.Axes != 3 {
		return fmt.Errorf("%w: axes must be 2 or 3, got %d", ErrInvalidConfig, c.Axes)
	}
	if c.Sensor != imu.Acceleration && c.Sensor != imu.RotationRate {
		return fmt.Errorf("%w: unknown sensor kind %v", ErrInvalidConfig, c.Sensor)
	}
	if c.Table.Name == "" {
		return fmt.Errorf("%w: remap table is required", ErrInvalidConfig)
	}
	return nil
}
