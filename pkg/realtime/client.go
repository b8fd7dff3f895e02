package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Upgrader is the websocket upgrader used by the realtime endpoint
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the router level
	},
}

// Client is one websocket connection with its topic subscriptions
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	CustomerID string
	topics     map[string]bool
}

// clientMessage is what clients may send upstream: subscription changes
type clientMessage struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// NewClient wires a connection into the hub with its initial topics and
// starts the read and write pumps.
func NewClient(hub *Hub, conn *websocket.Conn, customerID string, topics []string) *Client {
	client := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, 256),
		CustomerID: customerID,
		topics:     make(map[string]bool),
	}
	for _, topic := range topics {
		if topic != "" {
			client.topics[topic] = true
		}
	}

	hub.register <- client
	go client.writePump()
	go client.readPump()
	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Debug("Websocket read error")
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued messages into the same frame batch
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.logger.WithError(err).Debug("Ignoring malformed websocket message")
		return
	}

	switch msg.Type {
	case "subscribe":
		if msg.Topic != "" {
			c.hub.Subscribe(c, msg.Topic)
		}
	case "unsubscribe":
		if msg.Topic != "" {
			c.hub.Unsubscribe(c, msg.Topic)
		}
	}
}
