package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// defaultHandshakeTimeout bounds the websocket upgrade; a controller that
// cannot complete the handshake quickly is treated as unreachable.
const defaultHandshakeTimeout = 10 * time.Second

// WebsocketDialer dials push transports over websocket.
type WebsocketDialer struct {
	// HandshakeTimeout overrides the default handshake timeout when > 0.
	HandshakeTimeout time.Duration
}

// Dial opens a websocket to the given URL. The header carries the
// bearer-style credential when the profile has one.
func (d *WebsocketDialer) Dial(ctx context.Context, url string, header http.Header) (Stream, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: dial %s: status %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}

	return &websocketStream{conn: conn}, nil
}

// websocketStream adapts a websocket connection to the Stream interface.
type websocketStream struct {
	conn *websocket.Conn
}

func (s *websocketStream) Read() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("transport: read: %w", err)
	}
	return data, nil
}

func (s *websocketStream) Close() error {
	return s.conn.Close()
}
