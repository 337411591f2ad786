// Package streamer moves events from the bus to client connections: bus
// consumers admit envelopes into a bounded queue and a single dispatcher
// fans each one out to a snapshot of the live connections.
package streamer

import (
	"time"

	"streamer/internal/annotation"
	"streamer/internal/filter"
)

// Envelope carries one bus message from a consumer to the dispatcher.
// It is not modified after NewEnvelope.
type Envelope struct {
	Topic    string
	Payload  map[string]interface{}
	admitted time.Time
}

func NewEnvelope(topic string, payload map[string]interface{}) Envelope {
	return Envelope{Topic: topic, Payload: payload}
}

// Connection is the dispatcher's view of one live client channel.
type Connection interface {
	ClientID() string
	// AuthenticatedUserID is "" for anonymous connections.
	AuthenticatedUserID() string
	// Filter is nil until the client has installed one.
	Filter() filter.Filter
	EffectivePrincipals() []string
	Links() annotation.LinkContext
	// Send must not block for longer than the connection's send timeout.
	Send(msg interface{}) error
}

// Registry provides a point-in-time copy of the live connections.
type Registry interface {
	Snapshot() []Connection
}
