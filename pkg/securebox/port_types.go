package securebox

import (
	"github.com/hnodriturbo/Project-5-Security-Box/internal/app/controller"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// Aliases for the port interfaces so callers outside the module can provide
// their own peripherals and infrastructure.
type (
	Transport        = ports.Transport
	OutboundQueue    = ports.OutboundQueue
	Observability    = ports.Observability
	Display          = ports.Display
	Actuator         = ports.Actuator
	LightStrip       = ports.LightStrip
	CredentialReader = ports.CredentialReader
	ContactSensor    = ports.ContactSensor
	AuditStore       = controller.AuditStore
	SensorEvent      = domain.SensorEvent
	Payload          = domain.Payload
	Inbound          = ports.Inbound
	Field            = ports.Field
)

// ErrConnLost is the sentinel a Transport returns once its session is gone.
var ErrConnLost = ports.ErrConnLost
