// Package stream pushes newly saved overviews to websocket subscribers of a
// pacient. Instances share events through redis pub/sub.
package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "pacient:"
	channelSuffix  = ":overviews"
	channelPattern = channelPrefix + "*" + channelSuffix
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "breathstats",
		Subsystem: "stream",
		Name:      "connected_clients",
		Help:      "Websocket clients currently subscribed to a pacient feed.",
	})

	droppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "breathstats",
		Subsystem: "stream",
		Name:      "dropped_messages_total",
		Help:      "Messages dropped because a client send buffer was full.",
	})
)

// Event types.
const (
	EventMinigameOverview    = "minigame_overview"
	EventCalibrationOverview = "calibration_overview"
)

// Publisher is what services use to announce saved overviews.
type Publisher interface {
	Publish(ctx context.Context, pacientID, eventType string, data any) error
}

var _ Publisher = (*Hub)(nil)

// Event is the message delivered to subscribers.
type Event struct {
	Type      string `json:"type"`
	PacientID string `json:"pacientId"`
	Data      any    `json:"data"`
}

// wireMessage is what travels through redis. Origin lets an instance skip
// its own messages, which were already delivered locally.
type wireMessage struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

type Hub struct {
	redis   *redis.Client
	logger  *zap.Logger
	origin  string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	ready  chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

type Client struct {
	PacientID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:   redisClient,
		logger:  logger,
		origin:  uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	if redisClient != nil {
		go h.subscribeRedis(ctx)
	} else {
		close(h.ready)
		close(h.done)
	}
	return h
}

// Ready is closed once the redis subscription is established or has failed.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Close stops the redis subscription.
func (h *Hub) Close() {
	h.cancel()
	<-h.done
}

func (h *Hub) Register(pacientID string) *Client {
	client := &Client{
		PacientID: pacientID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[pacientID] == nil {
		h.clients[pacientID] = map[*Client]struct{}{}
	}
	h.clients[pacientID][client] = struct{}{}
	connectedClients.Inc()
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if pacientClients, ok := h.clients[client.PacientID]; ok {
		if _, registered := pacientClients[client]; !registered {
			return
		}
		delete(pacientClients, client)
		if len(pacientClients) == 0 {
			delete(h.clients, client.PacientID)
		}
		connectedClients.Dec()
		close(client.Send)
	}
}

// Publish delivers an event to local subscribers of the pacient and forwards
// it to the other instances. A redis failure is logged and returned; local
// delivery has already happened by then.
func (h *Hub) Publish(ctx context.Context, pacientID, eventType string, data any) error {
	payload, err := json.Marshal(Event{Type: eventType, PacientID: pacientID, Data: data})
	if err != nil {
		return err
	}
	h.deliver(pacientID, payload)

	if h.redis == nil {
		return nil
	}
	msg, err := json.Marshal(wireMessage{Origin: h.origin, Payload: payload})
	if err != nil {
		return err
	}
	if err := h.redis.Publish(ctx, redisChannel(pacientID), msg).Err(); err != nil {
		h.logger.Warn("redis publish failed", zap.String("pacient_id", pacientID), zap.Error(err))
		return err
	}
	return nil
}

func (h *Hub) deliver(pacientID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[pacientID] {
		select {
		case client.Send <- payload:
		default:
			droppedMessages.Inc()
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	defer close(h.done)

	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	close(h.ready)
	if err != nil {
		h.logger.Warn("redis subscribe failed", zap.String("pattern", channelPattern), zap.Error(err))
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRedisMessage(msg)
		}
	}
}

func (h *Hub) handleRedisMessage(msg *redis.Message) {
	pacientID := pacientIDFromChannel(msg.Channel)
	if pacientID == "" {
		return
	}
	var wire wireMessage
	if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
		h.logger.Warn("discarding malformed stream message", zap.String("channel", msg.Channel), zap.Error(err))
		return
	}
	if wire.Origin == h.origin {
		return
	}
	h.deliver(pacientID, wire.Payload)
}

func redisChannel(pacientID string) string {
	return channelPrefix + pacientID + channelSuffix
}

func pacientIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
