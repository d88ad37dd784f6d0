package domain

import "time"

// Method records which rule allowed a credential.
type Method string

const (
	MethodWhitelist Method = "whitelist"
	MethodPrefix    Method = "prefix"
	MethodNone      Method = ""
)

// SensorEvent is the canonical access decision produced by the scanner.
// It is immutable once created; consumers track it by mailbox sequence,
// never by removal.
type SensorEvent struct {
	Allowed    bool      `json:"allowed"`
	Identifier string    `json:"uid"`
	Label      string    `json:"label,omitempty"`
	Method     Method    `json:"method,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

// ShortID returns the trailing six characters of the identifier, the form
// shown on the display and in log lines.
func (e SensorEvent) ShortID() string {
	if len(e.Identifier) <= 6 {
		return e.Identifier
	}
	return e.Identifier[len(e.Identifier)-6:]
}
