package parallax

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_parallax/internal/imu"
)

func TestPresets(t *testing.T) {
	acc := AccelerometerConfig()
	require.NoError(t, acc.Validate())
	assert.Equal(t, Symmetric(50), acc.Range)
	assert.Equal(t, 50.0, acc.Strength)
	assert.Equal(t, imu.Acceleration, acc.Sensor)
	assert.Equal(t, 2, acc.Axes)
	assert.Equal(t, "accelerometer", acc.Table.Name)

	gyro := GyroscopeConfig()
	require.NoError(t, gyro.Validate())
	assert.Equal(t, Symmetric(5), gyro.Range)
	assert.Equal(t, 5.0, gyro.Strength)
	assert.Equal(t, imu.RotationRate, gyro.Sensor)
	assert.Equal(t, 3, gyro.Axes)
	assert.Equal(t, "gyroscope", gyro.Table.Name)

	assert.Equal(t, time.Second/30, gyro.SampleInterval)
	assert.Equal(t, 10.0, GyroscopeStrength(2))
}

func TestConfigForVariant(t *testing.T) {
	cfg, err := ConfigForVariant("gyroscope")
	require.NoError(t, err)
	assert.Equal(t, GyroscopeConfig(), cfg)

	_, err = ConfigForVariant("magnetometer")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min above max", func(c *Config) { c.Range = Range{Min: 5, Max: -5} }},
		{"nan bound", func(c *Config) { c.Range.Min = math.NaN() }},
		{"infinite bound", func(c *Config) { c.Range.Max = math.Inf(1) }},
		{"nan strength", func(c *Config) { c.Strength = math.NaN() }},
		{"zero interval", func(c *Config) { c.SampleInterval = 0 }},
		{"one axis", func(c *Config) { c.Axes = 1 }},
		{"unknown sensor", func(c *Config) { c.Sensor = imu.SensorKind(9) }},
		{"no table", func(c *Config) { c.Table = Table{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AccelerometerConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("degenerate range is fine", func(t *testing.T) {
		cfg := AccelerometerConfig()
		cfg.Range = Range{Min: 1, Max: 1}
		assert.NoError(t, cfg.Validate())
	})
}

func TestRangeClamp(t *testing.T) {
	r := Range{Min: -2, Max: 7}
	assert.Equal(t, -2.0, r.Clamp(-100))
	assert.Equal(t, 7.0, r.Clamp(100))
	assert.Equal(t, 3.5, r.Clamp(3.5))
	assert.Equal(t, 7.0, r.Clamp(math.Inf(1)))
	assert.Equal(t, 0.0, r.Clamp(math.NaN()))
	assert.Equal(t, 1.0, Range{Min: 1, Max: 3}.Clamp(math.NaN()))
}
