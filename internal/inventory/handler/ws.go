package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inventorycore/inventory-core/pkg/logger"
	"github.com/inventorycore/inventory-core/pkg/messaging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 32
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ScanFeedHub is a broadcast fan-out for live scan events: every applied
// stock adjustment is pushed to every connected handheld/dashboard client,
// so a receiving clerk sees a receipt land in near real time.
type ScanFeedHub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	logger  *logger.Logger
}

func NewScanFeedHub(log *logger.Logger) *ScanFeedHub {
	return &ScanFeedHub{clients: make(map[*wsClient]struct{}), logger: log}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcast marshals the event and enqueues it on every connected client's
// write channel, dropping the message for any client whose buffer is full
// rather than blocking the publisher.
func (h *ScanFeedHub) Broadcast(eventType string, data interface{}) {
	body, err := json.Marshal(struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal scan feed event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- body:
		default:
			h.logger.Warn().Msg("scan feed client buffer full, dropping event")
		}
	}
}

// OnStockAdjusted adapts events.InventoryEventPublisher's payload shape to
// the feed, so the hub can be wired in next to the RabbitMQ publisher
// without the mutator knowing the feed exists.
func (h *ScanFeedHub) OnStockAdjusted(data messaging.StockAdjustedEvent) {
	h.Broadcast(messaging.EventStockAdjusted, data)
}

func (h *ScanFeedHub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *ScanFeedHub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
}

// Serve upgrades the connection and pumps broadcasts to it until the client
// disconnects. The feed is read-only: any inbound frame is discarded.
func (h *ScanFeedHub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("scan feed upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.register(c)

	go h.readPump(c)
	go h.writePump(c)
}

func (h *ScanFeedHub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ScanFeedHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
