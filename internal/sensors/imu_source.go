// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_parallax/internal/imu"
)

// Sensitivities at the power-on full scale ranges (±2g, ±250°/s).
const (
	accelCountsPerG   = 16384.0
	gyroCountsPerDegS = 131.0
)

// MPU9250Source polls an MPU9250 over SPI and caches the latest accelerometer
// (in g) and gyroscope (in rad/s) readings for the kinds being acquired.
type MPU9250Source struct {
	name   string
	dev    *mpu9250.MPU9250
	logger *zap.Logger
	acq    imu.Acquisition

	mu     sync.Mutex
	latest map[imu.SensorKind]imu.Sample

	loopMu sync.Mutex
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewMPU9250Source initializes the MPU9250 on spiDev with chip select csPin.
func NewMPU9250Source(name, spiDev, csPin string, logger *zap.Logger) (*MPU9250Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", name, csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", name, spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", name, err)
	}

	if err := dev.Calibrate(); err != nil {
		logger.Warn("IMU calibration failed", zap.String("imu", name), zap.Error(err))
	} else {
		logger.Info("IMU calibration complete", zap.String("imu", name))
	}

	return &MPU9250Source{
		name:   name,
		dev:    dev,
		logger: logger,
		latest: make(map[imu.SensorKind]imu.Sample),
	}, nil
}

func (s *MPU9250Source) Available() bool {
	return s.dev != nil
}

// Start begins polling at interval. Polling is shared between kinds; the
// first Start decides the interval.
func (s *MPU9250Source) Start(kind imu.SensorKind, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%s IMU: invalid poll interval %v", s.name, interval)
	}
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	s.acq.Acquire(kind)
	if s.done != nil {
		return nil
	}
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.poll(interval, s.done)
	s.logger.Info("IMU polling started",
		zap.String("imu", s.name), zap.Stringer("sensor", kind), zap.Duration("interval", interval))
	return nil
}

func (s *MPU9250Source) Stop(kind imu.SensorKind) {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.acq.Release(kind) {
		s.mu.Lock()
		delete(s.latest, kind)
		s.mu.Unlock()
	}
	if s.acq.Any() || s.done == nil {
		return
	}
	close(s.done)
	s.wg.Wait()
	s.done = nil
	s.logger.Info("IMU polling stopped", zap.String("imu", s.name))
}

func (s *MPU9250Source) Latest(kind imu.SensorKind) (imu.Sample, bool) {
	if !s.acq.Active(kind) {
		return imu.Sample{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sample, ok := s.latest[kind]
	return sample, ok
}

func (s *MPU9250Source) poll(interval time.Duration, done <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for _, kind := range [...]imu.SensorKind{imu.Acceleration, imu.RotationRate} {
				if !s.acq.Active(kind) {
					continue
				}
				sample, err := s.read(kind)
				s.mu.Lock()
				if err != nil {
					// no data until the next good read
					delete(s.latest, kind)
				} else {
					s.latest[kind] = sample
				}
				s.mu.Unlock()
				if err != nil {
					s.logger.Debug("IMU read failed", zap.String("imu", s.name), zap.Error(err))
				}
			}
		}
	}
}

func (s *MPU9250Source) read(kind imu.SensorKind) (imu.Sample, error) {
	if kind == imu.Acceleration {
		ax, err := s.dev.GetAccelerationX()
		if err != nil {
			return imu.Sample{}, fmt.Errorf("%s IMU accel X: %w", s.name, err)
		}
		ay, err := s.dev.GetAccelerationY()
		if err != nil {
			return imu.Sample{}, fmt.Errorf("%s IMU accel Y: %w", s.name, err)
		}
		az, err := s.dev.GetAccelerationZ()
		if err != nil {
			return imu.Sample{}, fmt.Errorf("%s IMU accel Z: %w", s.name, err)
		}
		return AccelFromCounts(ax, ay, az), nil
	}

	gx, err := s.dev.GetRotationX()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU gyro X: %w", s.name, err)
	}
	gy, err := s.dev.GetRotationY()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU gyro Y: %w", s.name, err)
	}
	gz, err := s.dev.GetRotationZ()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU gyro Z: %w", s.name, err)
	}
	return RateFromCounts(gx, gy, gz), nil
}

// AccelFromCounts converts raw ±2g accelerometer counts to g.
func AccelFromCounts(ax, ay, az int16) imu.Sample {
	return imu.Sample{
		X: float64(ax) / accelCountsPerG,
		Y: float64(ay) / accelCountsPerG,
		Z: float64(az) / accelCountsPerG,
	}
}

// RateFromCounts converts raw ±250°/s gyroscope counts to rad/s.
func RateFromCounts(gx, gy, gz int16) imu.Sample {
	k := math.Pi / 180 / gyroCountsPerDegS
	return imu.Sample{
		X: float64(gx) * k,
		Y: float64(gy) * k,
		Z: float64(gz) * k,
	}
}
