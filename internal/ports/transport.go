package ports

import (
	"context"
	"errors"
)

// ErrConnLost is the distinguishable error a Transport returns once the
// underlying socket is gone. The link manager treats it as an immediate
// transition to Disconnected.
var ErrConnLost = errors.New("transport: connection lost")

// Inbound is one received message.
type Inbound struct {
	Topic   string
	Payload []byte
}

// Transport is the publish/subscribe client boundary. Implementations own
// the wire protocol; the link manager owns connection lifecycle, queueing,
// and dispatch on top of it.
type Transport interface {
	// Connect opens a session against one endpoint. A failed attempt must
	// leave the transport reusable for the next attempt.
	Connect(ctx context.Context, endpoint string) error
	Subscribe(topic string) error
	// Publish sends one message. It may block briefly but must not retry.
	Publish(topic string, payload []byte) error
	// PollIncoming returns the next buffered message, nil when there is
	// none, or ErrConnLost when the session has died.
	PollIncoming() (*Inbound, error)
	Close()
}
