package transport

import (
	"context"
	"testing"
	"time"

	"github.com/thevivotran/chessduel/pkg/wire"
)

func TestBackoffDuration(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{6, 3200 * time.Millisecond},
		{99, 3200 * time.Millisecond}, // capped
	}
	for _, tc := range cases {
		if got := backoffDuration(tc.attempt); got != tc.want {
			t.Fatalf("backoffDuration(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestSendRequiresConnection(t *testing.T) {
	ws := NewWebSocket("ws://127.0.0.1:0/ws", 0)
	env, err := wire.NewEnvelope(wire.TypeRequestState, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Send(context.Background(), env); err == nil {
		t.Fatal("send on a disconnected socket must fail")
	}
}

func TestCallbackRegistry(t *testing.T) {
	ws := NewWebSocket("ws://127.0.0.1:0/ws", 0)

	var got []State
	id := ws.OnStateChange(func(s State) { got = append(got, s) })
	ws.setState(StateConnecting)
	ws.RemoveStateCallback(id)
	ws.setState(StateConnected)

	if len(got) != 1 || got[0] != StateConnecting {
		t.Fatalf("states = %v, want [connecting]", got)
	}

	envID := ws.OnEnvelope(func(*wire.Envelope) {})
	ws.RemoveEnvelopeCallback(envID)
	if len(ws.envCbs) != 0 {
		t.Fatalf("envelope callbacks = %d, want 0", len(ws.envCbs))
	}
}
