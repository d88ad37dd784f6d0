// Package link keeps the broker connection alive and moves telemetry and
// commands across it. Two independent loops share one manager: the RX loop
// owns connection lifecycle and inbound dispatch, the TX loop drains the
// bounded outbound queue. A publish attempt never delays the next inbound
// poll, and vice versa.
package link

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/tasks"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// ErrNotConnected is returned by WaitUntilConnected when the context ends
// before a broker accepts us.
var ErrNotConnected = errors.New("link: not connected")

// Handler receives every well-formed inbound message.
type Handler func(topic string, payload domain.Payload)

// Snapshot is the externally visible connection state.
type Snapshot struct {
	Connected      bool
	ActiveEndpoint string
	LockedEndpoint string
}

type Options struct {
	Topic      string
	Primary    string
	Fallback   string
	Backoff    time.Duration
	RxInterval time.Duration
	TxInterval time.Duration
	// AnnounceOnline publishes an esp_online event after each successful
	// connect.
	AnnounceOnline bool
}

type Manager struct {
	transport ports.Transport
	queue     ports.OutboundQueue
	obs       ports.Observability
	opts      Options

	mu             sync.Mutex
	connected      bool
	activeEndpoint string
	lockedEndpoint string
	handler        Handler
}

func NewManager(transport ports.Transport, queue ports.OutboundQueue, obs ports.Observability, opts Options) *Manager {
	if opts.Backoff <= 0 {
		opts.Backoff = 900 * time.Millisecond
	}
	if opts.RxInterval <= 0 {
		opts.RxInterval = 50 * time.Millisecond
	}
	if opts.TxInterval <= 0 {
		opts.TxInterval = 75 * time.Millisecond
	}
	return &Manager{
		transport: transport,
		queue:     queue,
		obs:       obs,
		opts:      opts,
	}
}

// SetHandler registers the inbound dispatch callback. Must be called before
// the RX loop starts.
func (m *Manager) SetHandler(h Handler) {
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// Publish enqueues and returns immediately regardless of connection state.
// When the queue is full the oldest entry is evicted.
func (m *Manager) Publish(p domain.Payload) {
	if m.queue.Push(p) {
		m.obs.IncCounter("secbox_queue_evicted_total", 1)
	}
	m.obs.SetGauge("secbox_outbound_queue_length", float64(m.queue.Len()))
}

// PublishEvent enqueues a payload with an event discriminator.
func (m *Manager) PublishEvent(name string, extra domain.Payload) {
	m.Publish(domain.Event(name, extra))
}

// PublishLog mirrors log lines onto the wire for the dashboard.
func (m *Manager) PublishLog(level, message string) {
	m.Publish(domain.Payload{
		"event":   "log",
		"level":   level,
		"source":  "secbox",
		"message": message,
	})
}

// PublishState reports a named state value, e.g. lock: unlocking.
func (m *Manager) PublishState(name string, value any, extra domain.Payload) {
	p := domain.Payload{
		"event": "state",
		"name":  name,
		"value": value,
	}
	for k, v := range extra {
		p[k] = v
	}
	m.Publish(p)
}

func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// EndpointInUse returns the endpoint of the live session, empty while down.
func (m *Manager) EndpointInUse() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeEndpoint
}

func (m *Manager) State() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Connected:      m.connected,
		ActiveEndpoint: m.activeEndpoint,
		LockedEndpoint: m.lockedEndpoint,
	}
}

// WaitUntilConnected blocks until the link is up or ctx ends.
func (m *Manager) WaitUntilConnected(ctx context.Context) error {
	for {
		if m.Connected() {
			return nil
		}
		if !tasks.Sleep(ctx, 200*time.Millisecond) {
			return ErrNotConnected
		}
	}
}

// RunRx owns connection lifecycle and inbound polling.
func (m *Manager) RunRx(ctx context.Context) {
	for ctx.Err() == nil {
		if m.Connected() {
			m.pollInbound()
			if !tasks.Sleep(ctx, m.opts.RxInterval) {
				return
			}
			continue
		}

		m.connect(ctx)
		if m.Connected() {
			continue
		}
		if !tasks.Sleep(ctx, m.opts.Backoff) {
			return
		}
	}
}

// RunTx drains the outbound queue while connected. Messages stay queued
// across disconnects; a failed send goes back to the queue head.
func (m *Manager) RunTx(ctx context.Context) {
	for tasks.Sleep(ctx, m.opts.TxInterval) {
		m.txOnce()
	}
}

func (m *Manager) txOnce() {
	if !m.Connected() {
		return
	}

	p := m.queue.Pop()
	if p == nil {
		return
	}

	if err := m.send(p); err != nil {
		m.queue.PushFront(p)
		m.obs.IncCounter("secbox_publish_failures_total", 1)
		m.obs.LogError("link_publish_failed", err)
		if errors.Is(err, ports.ErrConnLost) {
			m.reset()
		}
	}
	m.obs.SetGauge("secbox_outbound_queue_length", float64(m.queue.Len()))
}

func (m *Manager) send(p domain.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		// Unmarshalable payloads are a programming error; drop, do not retry.
		m.obs.LogError("link_marshal_failed", err)
		return nil
	}
	return m.transport.Publish(m.opts.Topic, raw)
}

// connect walks the candidate endpoints in order. The first endpoint that
// ever succeeds is locked in for the life of the process.
func (m *Manager) connect(ctx context.Context) {
	for _, endpoint := range m.candidates() {
		if ctx.Err() != nil {
			return
		}

		if err := m.tryEndpoint(ctx, endpoint); err != nil {
			m.obs.LogError("link_connect_failed", err, ports.Field{Key: "endpoint", Value: endpoint})
			m.reset()
			if !tasks.Sleep(ctx, m.opts.Backoff) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.connected = true
		m.activeEndpoint = endpoint
		if m.lockedEndpoint == "" {
			m.lockedEndpoint = endpoint
		}
		m.mu.Unlock()

		m.obs.SetGauge("secbox_link_connected", 1)
		m.obs.LogInfo("link_connected",
			ports.Field{Key: "endpoint", Value: endpoint},
			ports.Field{Key: "topic", Value: m.opts.Topic})

		if m.opts.AnnounceOnline {
			m.PublishEvent("esp_online", domain.Payload{"broker": endpoint})
		}
		return
	}
}

func (m *Manager) tryEndpoint(ctx context.Context, endpoint string) error {
	if err := m.transport.Connect(ctx, endpoint); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := m.transport.Subscribe(m.opts.Topic); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (m *Manager) candidates() []string {
	m.mu.Lock()
	locked := m.lockedEndpoint
	m.mu.Unlock()

	if locked != "" {
		return []string{locked}
	}
	out := []string{m.opts.Primary}
	if m.opts.Fallback != "" {
		out = append(out, m.opts.Fallback)
	}
	return out
}

// pollInbound drains whatever the transport has buffered. A transport error
// means the socket is gone: reset and let the RX loop reconnect.
func (m *Manager) pollInbound() {
	for {
		msg, err := m.transport.PollIncoming()
		if err != nil {
			m.obs.LogError("link_connection_lost", err)
			m.reset()
			return
		}
		if msg == nil {
			return
		}
		m.dispatch(msg)
	}
}

func (m *Manager) dispatch(msg *ports.Inbound) {
	var payload domain.Payload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		m.obs.LogError("link_rx_malformed", err, ports.Field{Key: "topic", Value: msg.Topic})
		return
	}
	if payload == nil {
		m.obs.LogError("link_rx_malformed", fmt.Errorf("payload is not an object"),
			ports.Field{Key: "topic", Value: msg.Topic})
		return
	}

	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(msg.Topic, payload)
	}
}

func (m *Manager) reset() {
	m.mu.Lock()
	wasConnected := m.connected
	m.connected = false
	m.activeEndpoint = ""
	m.mu.Unlock()

	if wasConnected {
		m.obs.SetGauge("secbox_link_connected", 0)
	}
	m.transport.Close()
}
