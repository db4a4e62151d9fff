package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fuzzbridge/echidna-mcp/internal/bus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local tooling connects from arbitrary origins
		return true
	},
}

// Client is one WebSocket subscriber
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	clientID string
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// WebSocketGateway streams tool and fuzzer lifecycle events to connected
// clients. The stream is one-way; incoming frames are read only to keep
// the connection alive.
type WebSocketGateway struct {
	hub      *Hub
	eventBus *bus.EventBus
	logger   *logrus.Logger
}

// NewWebSocketGateway creates a gateway subscribed to every bus event
func NewWebSocketGateway(eventBus *bus.EventBus, logger *logrus.Logger) *WebSocketGateway {
	if logger == nil {
		logger = logrus.New()
	}

	hub := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	gateway := &WebSocketGateway{
		hub:      hub,
		eventBus: eventBus,
		logger:   logger,
	}

	eventBus.SubscribeAll(gateway.handleEvent)

	go hub.run()

	return gateway
}

// HandleWebSocket upgrades the HTTP request and registers the client
func (gw *WebSocketGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := fmt.Sprintf("client-%d", time.Now().UnixNano())
	client := &Client{
		hub:      gw.hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		clientID: clientID,
	}

	gw.hub.register <- client
	gw.logger.Infof("WebSocket client connected: %s", clientID)

	go client.writePump()
	go gw.readPump(client)
}

// ClientCount returns the number of connected clients
func (gw *WebSocketGateway) ClientCount() int {
	gw.hub.mu.RLock()
	defer gw.hub.mu.RUnlock()
	return len(gw.hub.clients)
}

// readPump discards incoming frames and detects disconnects
func (gw *WebSocketGateway) readPump(client *Client) {
	defer func() {
		client.hub.unregister <- client
		_ = client.conn.Close()
		gw.logger.Infof("WebSocket client disconnected: %s", client.clientID)
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				gw.logger.Errorf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain any queued messages as separate frames
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// run handles client registration, unregistration and broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the stream
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// handleEvent forwards a bus event to every connected client
func (gw *WebSocketGateway) handleEvent(event bus.Event) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    string(event.Type),
		"payload": event.Payload,
	})
	if err != nil {
		gw.logger.Errorf("Failed to marshal event: %v", err)
		return
	}

	select {
	case gw.hub.broadcast <- message:
	default:
		gw.logger.Warn("WebSocket broadcast queue full, dropping event")
	}
}
