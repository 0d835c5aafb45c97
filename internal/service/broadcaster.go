package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}

// Message types pushed to session subscribers
const (
	MsgSessionUpdated = "session_updated"
	MsgSessionClosed  = "session_closed"
)
