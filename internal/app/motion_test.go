package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/config"
	"github.com/relabs-tech/motion_parallax/internal/imu"
	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/parallax"
)

func float(v float64) *float64 { return &v }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.PowerProfilePath = filepath.Join(t.TempDir(), "platform_profile")
	return &cfg
}

func TestPipelineConfigPresets(t *testing.T) {
	cfg := testConfig(t)

	pc, err := PipelineConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, parallax.GyroscopeConfig(), pc)

	cfg.PipelineVariant = "accelerometer"
	pc, err = PipelineConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, parallax.AccelerometerConfig(), pc)
}

func TestPipelineConfigOverrides(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*config.Config)
		check func(*testing.T, parallax.Config)
	}{
		{
			name:  "accelerometer strength is used as is",
			apply: func(c *config.Config) { c.PipelineVariant = "accelerometer"; c.MotionStrength = float(2) },
			check: func(t *testing.T, pc parallax.Config) { assert.Equal(t, 2.0, pc.Strength) },
		},
		{
			name:  "gyroscope strength is scaled",
			apply: func(c *config.Config) { c.MotionStrength = float(2) },
			check: func(t *testing.T, pc parallax.Config) { assert.Equal(t, 10.0, pc.Strength) },
		},
		{
			name:  "range bounds",
			apply: func(c *config.Config) { c.MotionRangeMin = float(-1); c.MotionRangeMax = float(3) },
			check: func(t *testing.T, pc parallax.Config) {
				assert.Equal(t, parallax.Range{Min: -1, Max: 3}, pc.Range)
			},
		},
		{
			name:  "sample interval",
			apply: func(c *config.Config) { c.SampleInterval = 10 },
			check: func(t *testing.T, pc parallax.Config) { assert.Equal(t, 10*time.Millisecond, pc.SampleInterval) },
		},
		{
			name: "table swap and zero fallback",
			apply: func(c *config.Config) {
				c.PipelineVariant = "accelerometer"
				c.RemapTable = "gyroscope"
				c.ZeroOnUnknown = true
			},
			check: func(t *testing.T, pc parallax.Config) {
				assert.Equal(t, "gyroscope+zero", pc.Table.Name)
				assert.Equal(t, imu.Acceleration, pc.Sensor)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.apply(cfg)
			pc, err := PipelineConfig(cfg)
			require.NoError(t, err)
			tt.check(t, pc)
		})
	}
}

func TestPipelineConfigRejects(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*config.Config)
	}{
		{"variant", func(c *config.Config) { c.PipelineVariant = "magnetometer" }},
		{"table", func(c *config.Config) { c.RemapTable = "compass" }},
		{"range", func(c *config.Config) { c.MotionRangeMin = float(4); c.MotionRangeMax = float(-4) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.apply(cfg)
			_, err := PipelineConfig(cfg)
			assert.ErrorIs(t, err, parallax.ErrInvalidConfig)
		})
	}
}

func TestNewMotionMockRuns(t *testing.T) {
	cfg := testConfig(t)
	cfg.SampleInterval = 1

	m, err := newMotion(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, orientation.Portrait, m.pipeline.Orientation())

	offsets := make(chan parallax.Offset, 1)
	m.pipeline.OnOffsetChanged(func(off parallax.Offset) {
		select {
		case offsets <- off:
		default:
		}
	})
	require.True(t, m.pipeline.Start())

	select {
	case off := <-offsets:
		r := m.pipeline.Config().Range
		assert.True(t, r.Contains(off.X) && r.Contains(off.Y), "offset %v outside %v", off, r)
	case <-time.After(time.Second):
		t.Fatal("no offset from mock pipeline")
	}
}

func TestNewMotionHonoursPolicy(t *testing.T) {
	t.Run("config flag", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LowPower = true
		m, err := newMotion(cfg, nil, zap.NewNop())
		require.NoError(t, err)
		defer m.Close()
		assert.False(t, m.pipeline.Start())
	})

	t.Run("power profile", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.WriteFile(cfg.PowerProfilePath, []byte("low-power\n"), 0o644))
		m, err := newMotion(cfg, nil, zap.NewNop())
		require.NoError(t, err)
		defer m.Close()
		assert.False(t, m.pipeline.Start())
	})

	t.Run("preference file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.PreferencesPath = filepath.Join(t.TempDir(), "prefs")
		require.NoError(t, os.WriteFile(cfg.PreferencesPath, []byte("REDUCE_MOTION=true\n"), 0o644))
		m, err := newMotion(cfg, nil, zap.NewNop())
		require.NoError(t, err)
		defer m.Close()
		assert.False(t, m.pipeline.Start())
	})
}

func TestNewMotionGravityOrientation(t *testing.T) {
	cfg := testConfig(t)
	cfg.OrientationSource = "gravity"

	m, err := newMotion(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	// the mock source sways around upright portrait
	assert.Eventually(t, func() bool {
		return m.pipeline.Orientation() == orientation.Portrait
	}, time.Second, 10*time.Millisecond)
}

func TestNewMotionMQTTOrientationNeedsClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.OrientationSource = "mqtt"

	_, err := newMotion(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}
