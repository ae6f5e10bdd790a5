package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketTransport dials realtime endpoints over websockets.
type WebsocketTransport struct {
	dialer *websocket.Dialer
	header http.Header
}

// WebsocketOption configures the websocket transport.
type WebsocketOption func(*WebsocketTransport)

// WithHandshakeTimeout bounds the websocket handshake.
// Default: 10 seconds.
func WithHandshakeTimeout(d time.Duration) WebsocketOption {
	return func(t *WebsocketTransport) {
		t.dialer.HandshakeTimeout = d
	}
}

// WithHeader adds a header to the handshake request, e.g. the bearer token.
func WithHeader(key, value string) WebsocketOption {
	return func(t *WebsocketTransport) {
		t.header.Set(key, value)
	}
}

// NewWebsocketTransport creates the production websocket transport.
func NewWebsocketTransport(opts ...WebsocketOption) *WebsocketTransport {
	t := &WebsocketTransport{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dial establishes a websocket connection to the given URL.
func (t *WebsocketTransport) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := t.dialer.DialContext(ctx, url, t.header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteJSON(v any) error {
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

var _ Transport = (*WebsocketTransport)(nil)
