package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Message types pushed to dashboards.
const (
	TypeStockUpdate        = "stock_update"
	TypeTransactionCreated = "transaction_created"
)

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
	log        *zap.Logger
	done       chan struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 64),
		log:        log,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug("ws client connected", zap.Int("clients", h.Count()))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every client.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Send queues a typed JSON message for every client. It never blocks the caller;
// when the queue is full the message is dropped.
func (h *Hub) Send(msgType string, data interface{}) {
	msg, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.log.Error("ws marshal failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		h.log.Warn("ws broadcast queue full, message dropped", zap.String("type", msgType))
	}
}

// Serve is the per-connection loop for the /ws route.
func (h *Hub) Serve(c *websocket.Conn) {
	h.Register <- c
	defer func() { h.Unregister <- c }()

	for {
		// Keep alive loop
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
