package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// BroadcastInterval is how often snapshots go out to clients.
	BroadcastInterval = 100 * time.Millisecond

	maxClientMessage = 512
	writeTimeout     = 2 * time.Second
)

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// clientMessage is input sent by a WebSocket client.
type clientMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// WebSocketHub manages all WebSocket connections with DoS protection.
// Clients receive "game:state" snapshots and may send fire commands.
type WebSocketHub struct {
	engine     EngineInterface
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	upgrader websocket.Upgrader
	conns    *ConnLimiter
	fires    *RateLimiter // nil leaves WebSocket fire unthrottled
}

// NewWebSocketHub creates a hub that accepts browsers from origins. Fire
// messages spend tokens from limiter when it is non-nil.
func NewWebSocketHub(engine EngineInterface, origins *OriginPolicy, limiter *RateLimiter) *WebSocketHub {
	h := &WebSocketHub{
		engine:     engine,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		conns:      NewConnLimiter(MaxWSConnectionsPerIP),
		fires:      limiter,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run serves registrations and broadcasts until Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.drop(conn)
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.drop(conn)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()

			UpdateWSConnections(count)
			IncrementWSMessages()
		}
	}
}

// drop closes conn and frees its IP slot. Callers hold h.mu.
func (h *WebSocketHub) drop(conn *websocket.Conn) {
	if client, ok := h.clients[conn]; ok {
		h.conns.Release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.drop(conn)
	}
	UpdateWSConnections(0)
}

// Stop closes every connection and ends Run and the broadcast loop.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop publishes snapshots every BroadcastInterval and mirrors
// event log counters into metrics.
func (h *WebSocketHub) StartBroadcastLoop() {
	ticker := time.NewTicker(BroadcastInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if stats, ok := h.engine.GetStats()["eventLog"].(map[string]interface{}); ok {
				total, _ := stats["total"].(uint64)
				dropped, _ := stats["dropped"].(uint64)
				UpdateEventLogStats(total, dropped)
			}

			if h.ClientCount() == 0 {
				continue
			}
			h.Broadcast("game:state", h.engine.GetSnapshot())
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.conns.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.conns.Release(ip)
		return
	}
	conn.SetReadLimit(maxClientMessage)

	select {
	case h.register <- &wsClient{conn: conn, ip: ip}:
	case <-h.stopChan:
		h.conns.Release(ip)
		conn.Close()
		return
	}

	go h.readLoop(conn, ip)
}

// readLoop applies client commands until the connection closes.
func (h *WebSocketHub) readLoop(conn *websocket.Conn, ip string) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stopChan:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "fire":
			if !finite(msg.X) || !finite(msg.Y) {
				continue
			}
			if h.fires != nil && !h.fires.AllowFire(ip) {
				continue
			}
			if err := h.engine.Fire(msg.X, msg.Y, ip); err != nil {
				log.Printf("⚠️ Fire from %s dropped: %v", ip, err)
			}
		default:
			log.Printf("📨 Unknown WebSocket message from %s: %q", ip, msg.Type)
		}
	}
}
