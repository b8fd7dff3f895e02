package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub fans events out to websocket clients by topic. A client only
// receives messages for topics it subscribed to.
type Hub struct {
	clients    map[*Client]bool
	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan publication
	logger     *logrus.Logger
	mutex      sync.RWMutex
}

type publication struct {
	topic   string
	payload []byte
}

// NewHub creates a new Hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan publication, 64),
		logger:     logger,
	}
}

// Run pumps registrations and publications. Call it once, in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case pub := <-h.publish:
			h.sendToTopic(pub.topic, pub.payload)
		}
	}
}

// Publish broadcasts a message to every subscriber of a topic. It
// implements the event sink the services publish into and never blocks
// the caller: when the hub's buffer is full the message is dropped.
func (h *Hub) Publish(topic string, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).WithField("topic", topic).Error("Failed to marshal event")
		return
	}

	select {
	case h.publish <- publication{topic: topic, payload: payload}:
	default:
		h.logger.WithField("topic", topic).Warn("Event dropped, hub buffer full")
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	for topic := range client.topics {
		h.subscribe(client, topic)
	}

	h.logger.WithFields(logrus.Fields{
		"customer_id": client.CustomerID,
		"topics":      len(client.topics),
	}).Debug("Websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for topic, subscribers := range h.topics {
		if _, exists := subscribers[client]; exists {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.topics, topic)
			}
		}
	}

	h.logger.WithField("customer_id", client.CustomerID).Debug("Websocket client disconnected")
}

func (h *Hub) sendToTopic(topic string, payload []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	subscribers, exists := h.topics[topic]
	if !exists {
		return
	}

	for client := range subscribers {
		select {
		case client.send <- payload:
		default:
			// Slow consumer, drop the connection
			delete(h.clients, client)
			delete(subscribers, client)
			close(client.send)
		}
	}
}

// subscribe adds a client to a topic. Callers must hold the write lock.
func (h *Hub) subscribe(client *Client, topic string) {
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][client] = true
	client.topics[topic] = true
}

// Subscribe adds a live client to a topic
func (h *Hub) Subscribe(client *Client, topic string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.subscribe(client, topic)
}

// Unsubscribe removes a client from a topic
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if subscribers, exists := h.topics[topic]; exists {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
