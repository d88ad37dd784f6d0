package securebox

import (
	base "github.com/hnodriturbo/Project-5-Security-Box/pkg/securebox"
)

// ErrConnLost is returned by a Transport once its session is gone.
var ErrConnLost = base.ErrConnLost

// Type aliases so consumers can import the module root directly.
type (
	Config           = base.Config
	Box              = base.Box
	Option           = base.Option
	Transport        = base.Transport
	OutboundQueue    = base.OutboundQueue
	Observability    = base.Observability
	Display          = base.Display
	Actuator         = base.Actuator
	LightStrip       = base.LightStrip
	CredentialReader = base.CredentialReader
	ContactSensor    = base.ContactSensor
	AuditStore       = base.AuditStore
	SensorEvent      = base.SensorEvent
	Payload          = base.Payload
	Inbound          = base.Inbound
	Field            = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Box construction and options.
func New(cfg *Config, opts ...Option) (*Box, error) {
	return base.New(cfg, opts...)
}

func WithTransport(t Transport) Option {
	return base.WithTransport(t)
}

func WithQueue(q OutboundQueue) Option {
	return base.WithQueue(q)
}

func WithObservability(obs Observability) Option {
	return base.WithObservability(obs)
}

func WithDisplay(d Display) Option {
	return base.WithDisplay(d)
}

func WithActuator(a Actuator) Option {
	return base.WithActuator(a)
}

func WithStrip(s LightStrip) Option {
	return base.WithStrip(s)
}

func WithReader(r CredentialReader) Option {
	return base.WithReader(r)
}

func WithContact(c ContactSensor) Option {
	return base.WithContact(c)
}

func WithAudit(a AuditStore) Option {
	return base.WithAudit(a)
}
