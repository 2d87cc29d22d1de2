package session

import (
	"context"
	"errors"
	"testing"

	"github.com/thevivotran/chessduel/pkg/wire"
)

func TestOfferDrawOncePerOffer(t *testing.T) {
	s, sender, listener := seatState(t, 0, 0, wire.StartFEN)
	ctx := context.Background()

	if err := s.OfferDraw(ctx); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if got := sender.types(); len(got) != 1 || got[0] != wire.TypeRequestDraw {
		t.Fatalf("sent = %v, want one %s", got, wire.TypeRequestDraw)
	}
	if len(listener.offers) != 1 || listener.offers[0] != 0 {
		t.Fatalf("offer callbacks = %v, want [0]", listener.offers)
	}

	// A second request while one is active must not reach the wire.
	if err := s.OfferDraw(ctx); !errors.Is(err, ErrOfferActive) {
		t.Fatalf("second offer: %v, want ErrOfferActive", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %v, duplicate offer emitted", sender.types())
	}
}

func TestAcceptDrawRequiresOpponentOffer(t *testing.T) {
	ctx := context.Background()

	t.Run("no offer", func(t *testing.T) {
		s, sender, _ := seatState(t, 0, 0, wire.StartFEN)
		if err := s.AcceptDraw(ctx); !errors.Is(err, ErrNoOffer) {
			t.Fatalf("accept: %v, want ErrNoOffer", err)
		}
		if len(sender.sent) != 0 {
			t.Fatal("accept without offer emitted")
		}
	})

	t.Run("own offer", func(t *testing.T) {
		s, sender, _ := seatState(t, 0, 0, wire.StartFEN)
		if err := s.OfferDraw(ctx); err != nil {
			t.Fatalf("offer: %v", err)
		}
		if err := s.AcceptDraw(ctx); !errors.Is(err, ErrOwnOffer) {
			t.Fatalf("accept: %v, want ErrOwnOffer", err)
		}
		if got := sender.types(); len(got) != 1 || got[0] != wire.TypeRequestDraw {
			t.Fatalf("outbound = %v, want only the draw request", got)
		}
	})

	t.Run("opponent offer", func(t *testing.T) {
		s, sender, listener := seatState(t, 0, 0, wire.StartFEN)
		s.HandleEnvelope(serverMsg(t, wire.TypeDrawOffered, wire.DrawOffered{BySeat: 1}))
		if len(listener.offers) == 0 || listener.offers[len(listener.offers)-1] != 1 {
			t.Fatalf("offer callbacks = %v, want final 1", listener.offers)
		}
		if err := s.AcceptDraw(ctx); err != nil {
			t.Fatalf("accept: %v", err)
		}
		if got := sender.types(); len(got) != 1 || got[0] != wire.TypeAcceptDraw {
			t.Fatalf("sent = %v, want one %s", got, wire.TypeAcceptDraw)
		}
	})
}

// Declines are local only: the offer drops without any emission.
func TestDeclineDrawIsSilent(t *testing.T) {
	s, sender, _ := seatState(t, 0, 0, wire.StartFEN)
	s.HandleEnvelope(serverMsg(t, wire.TypeDrawOffered, wire.DrawOffered{BySeat: 1}))

	s.DeclineDraw()
	if len(sender.sent) != 0 {
		t.Fatalf("decline emitted %v", sender.types())
	}
	if s.Snapshot().OfferActive {
		t.Fatal("decline must drop the offer")
	}
}

func TestSessionEndedByAgreedDraw(t *testing.T) {
	s, _, listener := seatState(t, 0, 0, wire.StartFEN)
	if err := s.OfferDraw(context.Background()); err != nil {
		t.Fatalf("offer: %v", err)
	}
	s.HandleEnvelope(serverMsg(t, wire.TypeSessionEnded, wire.SessionEnded{
		Result: "draw", Message: "Draw agreed",
	}))
	snap := s.Snapshot()
	if !snap.Terminal || snap.TerminalReason != ReasonAgreedDraw {
		t.Fatalf("terminal=%v reason=%q, want agreed draw", snap.Terminal, snap.TerminalReason)
	}
	if snap.OfferActive {
		t.Fatal("terminal event must supersede the offer")
	}
	if len(listener.terminal) != 1 {
		t.Fatalf("terminal callbacks = %d, want 1", len(listener.terminal))
	}
}

func TestResignEndsSession(t *testing.T) {
	s, sender, _ := seatState(t, 0, 1, fenAfterF3)
	ctx := context.Background()

	// Resignation is permitted off-turn.
	if err := s.Resign(ctx); err != nil {
		t.Fatalf("resign: %v", err)
	}
	if got := sender.types(); len(got) != 1 || got[0] != wire.TypeResign {
		t.Fatalf("sent = %v, want one %s", got, wire.TypeResign)
	}

	s.HandleEnvelope(serverMsg(t, wire.TypeSessionEnded, wire.SessionEnded{
		Result: "resignation", Winner: "bob", Loser: "alice", Message: "alice resigned",
	}))
	snap := s.Snapshot()
	if !snap.Terminal || snap.TerminalReason != ReasonResignation {
		t.Fatalf("terminal=%v reason=%q, want resignation", snap.Terminal, snap.TerminalReason)
	}
	if err := s.Resign(ctx); !errors.Is(err, ErrGameOver) {
		t.Fatalf("resign after end: %v, want ErrGameOver", err)
	}
}

// A confirmed move arriving while an offer stands supersedes the offer; a
// transport drop does the same.
func TestOfferSuperseded(t *testing.T) {
	t.Run("by confirmed move", func(t *testing.T) {
		s, _, _ := seatState(t, 0, 0, wire.StartFEN)
		s.HandleEnvelope(serverMsg(t, wire.TypeDrawOffered, wire.DrawOffered{BySeat: 1}))
		s.HandleEnvelope(serverMsg(t, wire.TypeMoveConfirmed, wire.MoveConfirmed{
			Move: "f2f3", SAN: "f3", Position: fenAfterF3, CurrentMover: 1,
			IsCheckmate: false, IsDraw: false,
		}))
		// A non-terminal move leaves the offer standing in this protocol
		// only until reset or disconnect; terminal moves always clear it.
		s.HandleEnvelope(serverMsg(t, wire.TypeSessionReset, wire.SessionReset{
			Position: wire.StartFEN, Message: "reset",
		}))
		if s.Snapshot().OfferActive {
			t.Fatal("reset must clear the offer")
		}
	})

	t.Run("by disconnect", func(t *testing.T) {
		s, _, listener := seatState(t, 0, 0, wire.StartFEN)
		s.HandleEnvelope(serverMsg(t, wire.TypeDrawOffered, wire.DrawOffered{BySeat: 1}))
		s.HandleTransportState(context.Background(), false)
		if s.Snapshot().OfferActive {
			t.Fatal("disconnect must clear the offer")
		}
		if last := listener.offers[len(listener.offers)-1]; last != -1 {
			t.Fatalf("final offer callback = %d, want -1", last)
		}
	})
}
