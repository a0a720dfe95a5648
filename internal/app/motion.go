// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/config"
	"github.com/relabs-tech/motion_parallax/internal/imu"
	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/parallax"
	"github.com/relabs-tech/motion_parallax/internal/policy"
	"github.com/relabs-tech/motion_parallax/internal/sensors"
)

// gravityPollInterval is how often the gravity signal re-classifies the
// device orientation.
const gravityPollInterval = 100 * time.Millisecond

// PipelineConfig builds the pipeline configuration from the variant preset
// and any overrides in cfg.
func PipelineConfig(cfg *config.Config) (parallax.Config, error) {
	pc, err := parallax.ConfigForVariant(cfg.PipelineVariant)
	if err != nil {
		return parallax.Config{}, err
	}

	if cfg.RemapTable != "" {
		if pc.Table, err = parallax.TableByName(cfg.RemapTable); err != nil {
			return parallax.Config{}, err
		}
	}
	if cfg.ZeroOnUnknown {
		pc.Table = parallax.ZeroOnUnknown(pc.Table)
	}
	if cfg.MotionRangeMin != nil {
		pc.Range.Min = *cfg.MotionRangeMin
	}
	if cfg.MotionRangeMax != nil {
		pc.Range.Max = *cfg.MotionRangeMax
	}
	if cfg.MotionStrength != nil {
		s := *cfg.MotionStrength
		if pc.Sensor == imu.RotationRate {
			s = parallax.GyroscopeStrength(s)
		}
		pc.Strength = s
	}
	if cfg.SampleInterval > 0 {
		pc.SampleInterval = time.Duration(cfg.SampleInterval) * time.Millisecond
	}

	return pc, pc.Validate()
}

// motion bundles a pipeline with the collaborators it was built from.
type motion struct {
	pipeline *parallax.Pipeline
	source   imu.Source
	closers  []func()
}

func (m *motion) Close() {
	if m.pipeline != nil {
		m.pipeline.Close()
	}
	for i := len(m.closers) - 1; i >= 0; i-- {
		m.closers[i]()
	}
}

// newMotion wires the motion source, orientation signal and enablement gate
// selected by cfg into an idle pipeline. client may be nil unless the
// orientation source is "mqtt".
func newMotion(cfg *config.Config, client mqtt.Client, logger *zap.Logger) (*motion, error) {
	pc, err := PipelineConfig(cfg)
	if err != nil {
		return nil, err
	}

	m := &motion{source: openMotionSource(cfg, logger)}

	sig, err := m.openSignal(cfg, client, logger)
	if err != nil {
		m.Close()
		return nil, err
	}

	gate, err := m.openGate(cfg, logger)
	if err != nil {
		m.Close()
		return nil, err
	}

	m.pipeline, err = parallax.New(pc, m.source, sig, gate, parallax.WithLogger(logger.Named("pipeline")))
	if err != nil {
		m.Close()
		return nil, err
	}
	logger.Info("pipeline configured", zap.Stringer("remap", pc.Table))
	return m, nil
}

func openMotionSource(cfg *config.Config, logger *zap.Logger) imu.Source {
	if cfg.MotionSource != "mpu9250" {
		logger.Info("using mock motion source")
		return imu.NewMockSource()
	}
	src, err := sensors.NewMPU9250Source("parallax", cfg.IMUSPIDevice, cfg.IMUCSPin, logger.Named("imu"))
	if err != nil {
		// an absent sensor disables motion rather than failing the program
		logger.Warn("motion sensor not available", zap.Error(err))
		return imu.Unavailable{}
	}
	return src
}

func (m *motion) openSignal(cfg *config.Config, client mqtt.Client, logger *zap.Logger) (orientation.Signal, error) {
	switch cfg.OrientationSource {
	case "gravity":
		g := orientation.NewGravitySignal(m.source, gravityPollInterval, logger.Named("gravity"))
		if err := g.Start(); err != nil {
			logger.Warn("gravity orientation unavailable, orientation stays unknown", zap.Error(err))
			return g, nil
		}
		m.closers = append(m.closers, g.Close)
		return g, nil
	case "mqtt":
		if client == nil {
			return nil, fmt.Errorf("orientation source mqtt needs an MQTT connection")
		}
		s, err := NewMQTTSignal(client, cfg.TopicOrientationIn, orientation.Unknown, logger.Named("orientation"))
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, s.Close)
		return s, nil
	default:
		return orientation.NewMockSignal(orientation.Portrait), nil
	}
}

func (m *motion) openGate(cfg *config.Config, logger *zap.Logger) (policy.Gate, error) {
	power := policy.AnyPower{
		policy.Fixed{LowPower: cfg.LowPower},
		policy.SysfsPowerMode{Path: cfg.PowerProfilePath},
	}
	prefs := policy.AnyPreference{policy.Fixed{Reduce: cfg.ReduceMotion}}

	if cfg.PreferencesPath != "" {
		pf, err := policy.OpenPreferenceFile(cfg.PreferencesPath, logger.Named("preferences"))
		if err != nil {
			return policy.Gate{}, err
		}
		m.closers = append(m.closers, func() {
			if err := pf.Close(); err != nil {
				logger.Warn("closing preference watcher", zap.Error(err))
			}
		})
		power = append(power, pf)
		prefs = append(prefs, pf)
	}
	return policy.Gate{Power: power, Preference: prefs}, nil
}
