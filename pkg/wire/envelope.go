package wire

import (
	"encoding/json"
	"fmt"
)

// Message types, client → server.
const (
	TypeCreateSession = "create-session"
	TypeJoinSession   = "join-session"
	TypeSubmitMove    = "submit-move"
	TypeRequestState  = "request-state"
	TypeLeaveSession  = "leave-session"
	TypeRequestDraw   = "request-draw"
	TypeAcceptDraw    = "accept-draw"
	TypeResign        = "resign"
	TypeResetSession  = "reset-session"
)

// Message types, server → client.
const (
	TypeSessionCreated = "session-created"
	TypeSessionJoined  = "session-joined"
	TypeOpponentJoined = "opponent-joined"
	TypeMoveConfirmed  = "move-confirmed"
	TypeStateSnapshot  = "state-snapshot"
	TypeSessionReset   = "session-reset"
	TypeOpponentLeft   = "opponent-left"
	TypeDrawOffered    = "draw-offered"
	TypeSessionEnded   = "session-ended"
	TypeProtocolError  = "protocol-error"
)

// Envelope is the single frame shape on the wire: a type tag plus a
// type-specific JSON payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(msgType string, payload any) (*Envelope, error) {
	env := &Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		env.Data = raw
	}
	return env, nil
}

// Decode unmarshals the envelope payload into out.
func (e *Envelope) Decode(out any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
