package ws

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chatcore/internal/metrics"
)

// Hub fans out published events to the clients subscribed to a topic.
// A client whose send buffer is full is disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}

	metrics *metrics.Recorder
	log     *zap.Logger

	Now func() time.Time
}

func NewHub(rec *metrics.Recorder, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		topics:  make(map[string]map[*Client]struct{}),
		metrics: rec,
		log:     log,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister drops c from every topic and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for topic := range c.topics {
		h.removeLocked(c, topic)
	}
	close(c.send)
}

func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	subs := h.topics[topic]
	if subs == nil {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}
	c.topics[topic] = struct{}{}
}

func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, topic)
}

func (h *Hub) removeLocked(c *Client, topic string) {
	delete(c.topics, topic)
	subs := h.topics[topic]
	if subs == nil {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish sends one event to every subscriber of topic without blocking.
func (h *Hub) Publish(topic, event string, payload any) error {
	data, err := encode(event, topic, payload, h.Now())
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.topics[topic] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return nil
	}
	h.mu.Lock()
	for _, c := range slow {
		h.unregisterLocked(c)
	}
	h.mu.Unlock()
	for _, c := range slow {
		h.metrics.RealtimeDropped()
		h.log.Warn("realtime_client_dropped", zap.Int64("user_id", c.userID), zap.String("topic", topic))
	}
	return nil
}

// reply queues a frame for c alone. Dropped when the buffer is full.
func (h *Hub) reply(c *Client, event string, payload any) {
	data, err := encode(event, "", payload, h.Now())
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Subscribers reports how many clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.unregisterLocked(c)
	}
}
