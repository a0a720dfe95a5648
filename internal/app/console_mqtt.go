package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/config"
)

// RunConsoleMQTT prints every offset and orientation change published by the
// producer until ctx is done.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()
	log := zap.L().Named("console").Sugar()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to offsets
	offsetToken := client.Subscribe(cfg.TopicOffset, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printOffset(os.Stdout, msg.Payload()); err != nil {
			log.Warnf("offset unmarshal error: %v", err)
		}
	})
	offsetToken.Wait()
	if offsetToken.Error() != nil {
		return offsetToken.Error()
	}
	log.Infof("subscribed to %s", cfg.TopicOffset)

	// Subscribe to orientation
	if cfg.TopicOrientation != "" {
		orientToken := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := printOrientation(os.Stdout, msg.Payload()); err != nil {
				log.Warnf("orientation unmarshal error: %v", err)
			}
		})
		orientToken.Wait()
		if orientToken.Error() != nil {
			return orientToken.Error()
		}
		log.Infof("subscribed to %s", cfg.TopicOrientation)
	}

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func printOffset(w io.Writer, payload []byte) error {
	var m OffsetMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[OFFSET] X=%7.2f  Y=%7.2f  Z=%7.2f  %-20s %5.1fms\n",
		m.X, m.Y, m.Z, m.Orientation, m.IntervalMS)
	return err
}

func printOrientation(w io.Writer, payload []byte) error {
	var m OrientationMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[ORIENT] %s\n", m.Orientation)
	return err
}
