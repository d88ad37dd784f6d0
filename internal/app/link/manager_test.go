package link

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/adapters/queue"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

type fakeTransport struct {
	unreachable  map[string]bool
	connectCalls []string
	subscribed   string
	published    []domain.Payload
	publishErrs  []error
	inbound      []ports.Inbound
	pollErr      error
}

func (f *fakeTransport) Connect(_ context.Context, endpoint string) error {
	f.connectCalls = append(f.connectCalls, endpoint)
	if f.unreachable[endpoint] {
		return assert.AnError
	}
	return nil
}

func (f *fakeTransport) Subscribe(topic string) error {
	f.subscribed = topic
	return nil
}

func (f *fakeTransport) Publish(_ string, payload []byte) error {
	if len(f.publishErrs) > 0 {
		err := f.publishErrs[0]
		f.publishErrs = f.publishErrs[1:]
		if err != nil {
			return err
		}
	}
	var p domain.Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	f.published = append(f.published, p)
	return nil
}

func (f *fakeTransport) PollIncoming() (*ports.Inbound, error) {
	if f.pollErr != nil {
		err := f.pollErr
		f.pollErr = nil
		return nil, err
	}
	if len(f.inbound) == 0 {
		return nil, nil
	}
	msg := f.inbound[0]
	f.inbound = f.inbound[1:]
	return &msg, nil
}

func (f *fakeTransport) Close() {}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) SetGauge(string, float64)                  {}

func newTestManager(t *fakeTransport, opts Options) *Manager {
	if opts.Topic == "" {
		opts.Topic = "1404TOPIC"
	}
	return NewManager(t, queue.NewOutQueue(8), nopObs{}, opts)
}

func TestFallbackLocksAfterPrimaryFails(t *testing.T) {
	ft := &fakeTransport{unreachable: map[string]bool{"tcp://primary:1883": true}}
	m := newTestManager(ft, Options{
		Primary:  "tcp://primary:1883",
		Fallback: "tcp://fallback:1883",
		Backoff:  1,
	})

	m.connect(context.Background())

	snap := m.State()
	require.True(t, snap.Connected)
	assert.Equal(t, "tcp://fallback:1883", snap.ActiveEndpoint)
	assert.Equal(t, "tcp://fallback:1883", snap.LockedEndpoint)
	assert.Equal(t, "1404TOPIC", ft.subscribed)

	// A later drop must retry only the locked endpoint, never the primary.
	m.reset()
	ft.connectCalls = nil
	m.connect(context.Background())

	assert.Equal(t, []string{"tcp://fallback:1883"}, ft.connectCalls)
	assert.True(t, m.Connected())
}

func TestLockedEndpointSurvivesRepeatedFailures(t *testing.T) {
	ft := &fakeTransport{}
	m := newTestManager(ft, Options{Primary: "tcp://primary:1883", Fallback: "tcp://fallback:1883", Backoff: 1})

	m.connect(context.Background())
	require.Equal(t, "tcp://primary:1883", m.State().LockedEndpoint)

	// Locked endpoint goes dark: attempts keep hitting it alone.
	m.reset()
	ft.unreachable = map[string]bool{"tcp://primary:1883": true}
	ft.connectCalls = nil
	m.connect(context.Background())

	assert.Equal(t, []string{"tcp://primary:1883"}, ft.connectCalls)
	assert.False(t, m.Connected())
	assert.Equal(t, "tcp://primary:1883", m.State().LockedEndpoint)
}

func TestPublishQueuesWhileDisconnected(t *testing.T) {
	ft := &fakeTransport{}
	m := newTestManager(ft, Options{Primary: "tcp://primary:1883", Backoff: 1})

	m.PublishEvent("rfid_allowed", domain.Payload{"uid": "AABBCC"})
	m.PublishEvent("rfid_denied", domain.Payload{"uid": "FFFFFF"})

	// Disconnected: txOnce must not touch the transport.
	m.txOnce()
	assert.Empty(t, ft.published)

	m.connect(context.Background())
	m.txOnce()
	m.txOnce()

	require.Len(t, ft.published, 2)
	assert.Equal(t, "rfid_allowed", ft.published[0]["event"])
	assert.Equal(t, "rfid_denied", ft.published[1]["event"])
}

func TestFailedSendRetriedBeforeNewerMessages(t *testing.T) {
	ft := &fakeTransport{publishErrs: []error{assert.AnError}}
	m := newTestManager(ft, Options{Primary: "tcp://primary:1883", Backoff: 1})
	m.connect(context.Background())

	m.PublishEvent("first", nil)
	m.PublishEvent("second", nil)

	m.txOnce() // fails, message goes back to the head
	m.txOnce()
	m.txOnce()

	require.Len(t, ft.published, 2)
	assert.Equal(t, "first", ft.published[0]["event"])
	assert.Equal(t, "second", ft.published[1]["event"])
}

func TestConnLostOnSendResetsLink(t *testing.T) {
	ft := &fakeTransport{publishErrs: []error{ports.ErrConnLost}}
	m := newTestManager(ft, Options{Primary: "tcp://primary:1883", Backoff: 1})
	m.connect(context.Background())

	m.PublishEvent("first", nil)
	m.txOnce()

	assert.False(t, m.Connected())
	// The failed message survives at the head for the next connection.
	assert.Equal(t, 1, m.queue.Len())
}

func TestInboundDispatchAndMalformedPayloads(t *testing.T) {
	ft := &fakeTransport{inbound: []ports.Inbound{
		{Topic: "1404TOPIC", Payload: []byte(`not json`)},
		{Topic: "1404TOPIC", Payload: []byte(`[1,2,3]`)},
		{Topic: "1404TOPIC", Payload: []byte(`{"command":"unlock"}`)},
	}}
	m := newTestManager(ft, Options{Primary: "tcp://primary:1883", Backoff: 1})

	var got []domain.Payload
	m.SetHandler(func(_ string, p domain.Payload) {
		got = append(got, p)
	})

	m.connect(context.Background())
	m.pollInbound()

	require.Len(t, got, 1)
	assert.Equal(t, "unlock", got[0]["command"])
}

func TestPollErrorTransitionsToDisconnected(t *testing.T) {
	ft := &fakeTransport{pollErr: ports.ErrConnLost}
	m := newTestManager(ft, Options{Primary: "tcp://primary:1883", Backoff: 1})
	m.connect(context.Background())
	require.True(t, m.Connected())

	m.pollInbound()
	assert.False(t, m.Connected())
}

func TestAnnounceOnlineQueuesEvent(t *testing.T) {
	ft := &fakeTransport{}
	m := newTestManager(ft, Options{Primary: "tcp://primary:1883", Backoff: 1, AnnounceOnline: true})
	m.connect(context.Background())

	m.txOnce()
	require.Len(t, ft.published, 1)
	assert.Equal(t, "esp_online", ft.published[0]["event"])
	assert.Equal(t, "tcp://primary:1883", ft.published[0]["broker"])
}
