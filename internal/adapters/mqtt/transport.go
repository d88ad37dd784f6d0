// Package mqtt adapts the Eclipse Paho client to the ports.Transport
// boundary. The link manager owns reconnection and queueing; this adapter
// only wraps one session at a time.
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

const (
	defaultOpTimeout = 5 * time.Second
	inboundBuffer    = 32
)

type Transport struct {
	clientID  string
	keepAlive time.Duration
	opTimeout time.Duration

	mu      sync.Mutex
	client  paho.Client
	inbound chan ports.Inbound
	lost    atomic.Bool
}

func NewTransport(clientID string, keepAlive time.Duration) *Transport {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &Transport{
		clientID:  clientID,
		keepAlive: keepAlive,
		opTimeout: defaultOpTimeout,
	}
}

// Connect opens a fresh session against one broker. A new client is built
// per attempt so a failed endpoint leaves no stale state behind.
func (t *Transport) Connect(ctx context.Context, endpoint string) error {
	t.Close()

	opts := paho.NewClientOptions()
	opts.AddBroker(endpoint)
	opts.SetClientID(t.clientID)
	opts.SetKeepAlive(t.keepAlive)
	opts.SetAutoReconnect(false)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		t.lost.Store(true)
	})

	client := paho.NewClient(opts)

	token := client.Connect()
	if !waitToken(ctx, token, t.opTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect %s: timeout", endpoint)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect %s: %w", endpoint, err)
	}

	t.mu.Lock()
	t.client = client
	t.inbound = make(chan ports.Inbound, inboundBuffer)
	t.mu.Unlock()
	t.lost.Store(false)
	return nil
}

func (t *Transport) Subscribe(topic string) error {
	client, inbound := t.session()
	if client == nil {
		return ports.ErrConnLost
	}

	token := client.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		select {
		case inbound <- ports.Inbound{Topic: msg.Topic(), Payload: msg.Payload()}:
		default:
			// Inbound buffer full: the oldest unread command wins, extra
			// traffic is dropped rather than blocking the paho router.
		}
	})
	if !token.WaitTimeout(t.opTimeout) {
		return fmt.Errorf("mqtt subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	return nil
}

func (t *Transport) Publish(topic string, payload []byte) error {
	client, _ := t.session()
	if client == nil || t.lost.Load() {
		return ports.ErrConnLost
	}

	token := client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(t.opTimeout) {
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		if !client.IsConnectionOpen() {
			return ports.ErrConnLost
		}
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func (t *Transport) PollIncoming() (*ports.Inbound, error) {
	if t.lost.Load() {
		return nil, ports.ErrConnLost
	}
	_, inbound := t.session()
	if inbound == nil {
		return nil, ports.ErrConnLost
	}

	select {
	case msg := <-inbound:
		return &msg, nil
	default:
		return nil, nil
	}
}

func (t *Transport) Close() {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.inbound = nil
	t.mu.Unlock()

	if client != nil {
		client.Disconnect(250)
	}
}

func (t *Transport) session() (paho.Client, chan ports.Inbound) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client, t.inbound
}

func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if token.WaitTimeout(50 * time.Millisecond) {
			return true
		}
	}
	return false
}

var _ ports.Transport = (*Transport)(nil)
