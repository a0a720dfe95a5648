package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/orientation"
)

// MQTTSignal is an orientation signal fed by an external publisher, e.g. a
// phone or a window manager forwarding rotation events. Payloads are either
// a bare orientation name or an OrientationMessage.
type MQTTSignal struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger

	current   atomic.Int32
	observers orientation.Observers
	closeOnce sync.Once
}

// NewMQTTSignal subscribes to topic and reports initial until the first
// message arrives.
func NewMQTTSignal(client mqtt.Client, topic string, initial orientation.Orientation, logger *zap.Logger) (*MQTTSignal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MQTTSignal{client: client, topic: topic, logger: logger}
	s.current.Store(int32(initial))

	token := client.Subscribe(topic, 0, s.handle)
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	logger.Info("subscribed to orientation topic", zap.String("topic", topic))
	return s, nil
}

func (s *MQTTSignal) Current() orientation.Orientation {
	return orientation.Orientation(s.current.Load())
}

func (s *MQTTSignal) Subscribe(fn func(orientation.Orientation)) func() {
	return s.observers.Add(fn)
}

// Close unsubscribes from the topic.
func (s *MQTTSignal) Close() {
	s.closeOnce.Do(func() {
		token := s.client.Unsubscribe(s.topic)
		token.Wait()
		if token.Error() != nil {
			s.logger.Warn("unsubscribe failed", zap.String("topic", s.topic), zap.Error(token.Error()))
		}
	})
}

func (s *MQTTSignal) handle(_ mqtt.Client, msg mqtt.Message) {
	o := parseOrientationPayload(msg.Payload())
	s.current.Store(int32(o))
	s.observers.Notify(o)
}

func parseOrientationPayload(payload []byte) orientation.Orientation {
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		var m OrientationMessage
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return orientation.Unknown
		}
		return m.Orientation
	}
	return orientation.Parse(strings.Trim(trimmed, `"`))
}
