package realtime

import (
	"context"
	"encoding/json"
)

// Conn is a single established realtime connection.
type Conn interface {
	// ReadMessage blocks until the next inbound message or a connection error.
	ReadMessage() ([]byte, error)

	// WriteJSON sends a JSON-encoded message.
	WriteJSON(v any) error

	// Close tears down the connection. Unblocks a pending ReadMessage.
	Close() error
}

// Transport establishes realtime connections. The production implementation
// is the websocket transport; tests inject fakes.
type Transport interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Message is the inbound event envelope: a named event carrying a JSON
// payload keyed by entity id.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler receives the payload of a dispatched event.
type Handler func(data json.RawMessage)

// Synthetic events emitted by the channel itself, alongside server pushes.
const (
	// EventConnected fires after every successful Connected transition,
	// including reconnections. Re-subscribe from its handler.
	EventConnected = "connected"

	// EventDisconnected fires when the transport drops or Disconnect is called.
	EventDisconnected = "disconnected"
)

// subscribeRequest is the outbound join message for a topic.
type subscribeRequest struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}
