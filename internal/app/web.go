package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// clientBuffer is how many offsets a slow websocket client may fall behind
// before offsets are dropped for it.
const clientBuffer = 8

// offsetHub keeps the latest offset and fans every new one out to the
// connected websocket clients.
type offsetHub struct {
	log *zap.SugaredLogger

	mu      sync.RWMutex
	last    []byte
	clients map[chan []byte]struct{}
}

func newOffsetHub(log *zap.SugaredLogger) *offsetHub {
	return &offsetHub{log: log, clients: make(map[chan []byte]struct{})}
}

// publish stores payload as the latest offset and queues it for every
// client. Clients whose buffer is full miss this offset.
func (h *offsetHub) publish(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = payload
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *offsetHub) latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

func (h *offsetHub) add() chan []byte {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *offsetHub) remove(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *offsetHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleLatest serves the most recent offset as JSON.
func (h *offsetHub) handleLatest(w http.ResponseWriter, r *http.Request) {
	last := h.latest()
	if last == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(last); err != nil {
		h.log.Warnf("write error: %v", err)
	}
}

// handleStream upgrades to a websocket and pushes every offset as a text
// message, starting with the latest one.
func (h *offsetHub) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := h.add()
	defer h.remove(ch)

	if last := h.latest(); last != nil {
		if err := conn.WriteMessage(websocket.TextMessage, last); err != nil {
			return
		}
	}

	// reader: only needed to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debugf("websocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case payload := <-ch:
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

func (h *offsetHub) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/offset", h.handleLatest)
	mux.HandleFunc("/ws/offset", h.handleStream)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

// RunWeb subscribes to the offset topic and serves the latest offset over
// HTTP and a websocket stream for the browser card demo.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	log := zap.L().Named("web").Sugar()
	hub := newOffsetHub(log)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicOffset, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m OffsetMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Warnf("MQTT payload unmarshal error: %v", err)
			return
		}
		hub.publish(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Infof("subscribed to MQTT topic %s", cfg.TopicOffset)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           hub.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("web server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
