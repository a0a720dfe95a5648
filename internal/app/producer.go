// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/config"
	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/parallax"
)

// restartInterval is how often an idle pipeline retries Start, picking up
// policy changes such as leaving low-power mode.
const restartInterval = time.Second

// RunProducer runs the motion pipeline and publishes every offset, and every
// orientation change, as JSON to MQTT until ctx is done.
func RunProducer(ctx context.Context) error {
	cfg := config.Get()
	logger := zap.L().Named("producer")
	log := logger.Sugar()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer).
		SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	m, err := newMotion(cfg, client, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	pub := &offsetPublisher{
		client:   client,
		topic:    cfg.TopicOffset,
		interval: m.pipeline.Config().SampleInterval,
		tracker:  m.pipeline.Tracker(),
		log:      log,
	}
	m.pipeline.OnOffsetChanged(pub.publish)

	publishOrientation(client, cfg.TopicOrientation, m.pipeline.Orientation(), log)
	unsubscribe := m.pipeline.Tracker().Subscribe(func(o orientation.Orientation) {
		publishOrientation(client, cfg.TopicOrientation, o, log)
	})
	defer unsubscribe()

	if !m.pipeline.Start() {
		log.Infof("motion currently disabled, retrying every %s", restartInterval)
	}

	ticker := time.NewTicker(restartInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-ticker.C:
			if !m.pipeline.Active() && m.pipeline.Start() {
				log.Info("motion enabled")
			}
		}
	}
}

type offsetPublisher struct {
	client   mqtt.Client
	topic    string
	interval time.Duration
	tracker  *orientation.Tracker
	log      *zap.SugaredLogger
}

func (p *offsetPublisher) publish(off parallax.Offset) {
	payload, err := json.Marshal(OffsetMessage{
		Offset:      off,
		Orientation: p.tracker.Current(),
		IntervalMS:  float64(p.interval) / float64(time.Millisecond),
		Time:        time.Now().UTC(),
	})
	if err != nil {
		p.log.Errorf("json marshal error (offset): %v", err)
		return
	}
	// never hold up the sample loop for longer than one tick
	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(p.interval) {
		p.log.Debugf("MQTT publish to %s still pending after %s", p.topic, p.interval)
		return
	}
	if token.Error() != nil {
		p.log.Warnf("MQTT publish error (offset): %v", token.Error())
	}
}

func publishOrientation(client mqtt.Client, topic string, o orientation.Orientation, log *zap.SugaredLogger) {
	if topic == "" {
		return
	}
	payload, err := json.Marshal(OrientationMessage{Orientation: o, Time: time.Now().UTC()})
	if err != nil {
		log.Errorf("json marshal error (orientation): %v", err)
		return
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Warnf("MQTT publish error (orientation): %v", token.Error())
		return
	}
	log.Infof("orientation %s", o)
}
