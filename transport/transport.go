// Package transport provides the two ways metric payloads reach the
// monitor: a persistent server-push message stream (websocket) and a
// client-initiated poll round trip (plain HTTP). Channel controllers
// depend only on the interfaces here so tests can substitute scriptable
// fakes.
package transport

import (
	"context"
	"net/http"
)

// Stream is one persistent push feed. Read blocks until the next inbound
// message arrives or the stream fails. Close unblocks a pending Read.
type Stream interface {
	Read() ([]byte, error)
	Close() error
}

// Dialer establishes push streams.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Stream, error)
}

// Getter performs one poll round trip and returns the response body.
type Getter interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
}
