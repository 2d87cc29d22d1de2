// Package transport maintains the client's websocket link: dial, typed
// envelope reads, bounded writes, keepalive pings, and bounded reconnect
// with exponential backoff.
package transport

import (
	"context"

	"github.com/thevivotran/chessduel/pkg/wire"
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed"
)

type EnvelopeCallback func(env *wire.Envelope)

type StateCallback func(state State)

// Client is the transport surface the session layer depends on.
type Client interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, env *wire.Envelope) error
	OnEnvelope(cb EnvelopeCallback) int
	RemoveEnvelopeCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	Close(ctx context.Context) error
}
