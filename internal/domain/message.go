package domain

// Payload is the flat key/value record shape used for every message that
// crosses the wire, both directions. Outbound records carry an "event"
// discriminator, inbound records a "command" discriminator.
type Payload map[string]any

// Event builds an outbound payload with the given event name merged with
// the extra fields. Extra keys win over nothing; the event key is fixed.
func Event(name string, extra Payload) Payload {
	p := Payload{"event": name}
	for k, v := range extra {
		p[k] = v
	}
	return p
}
