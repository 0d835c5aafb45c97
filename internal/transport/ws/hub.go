package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server message types
const (
	MsgSessionUpdated MessageType = "session_updated"
	MsgSessionClosed  MessageType = "session_closed"
	MsgError          MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans session events out to every open tab of a session
type Hub struct {
	// session ID -> connections
	sessions map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message for every connection of one session.
// Close drops the connections once earlier messages are queued.
type BroadcastMessage struct {
	SessionID string
	Message   *Message
	Close     bool
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[*Connection]bool)
			}
			h.sessions[conn.SessionID][conn] = true
			log.Printf("[WS] Tab connected to session %s (%d open)", conn.SessionID, len(h.sessions[conn.SessionID]))
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.sessions[conn.SessionID]; ok && conns[conn] {
				delete(conns, conn)
				close(conn.Send)
				if len(conns) == 0 {
					delete(h.sessions, conn.SessionID)
				}
				log.Printf("[WS] Tab disconnected from session %s", conn.SessionID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			if msg.Close {
				h.mu.Lock()
				for conn := range h.sessions[msg.SessionID] {
					close(conn.Send)
				}
				delete(h.sessions, msg.SessionID)
				h.mu.Unlock()
				continue
			}

			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.sessions[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Connections returns how many tabs are open on a session
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// BroadcastToSession sends a message to every tab of a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectSession closes every connection of a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	h.broadcast <- &BroadcastMessage{SessionID: sessionID, Close: true}
}
