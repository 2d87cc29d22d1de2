package server

import (
	"strings"
	"testing"

	"github.com/thevivotran/chessduel/pkg/wire"
)

func playAll(t *testing.T, g *Game, moves ...string) *wire.MoveConfirmed {
	t.Helper()
	var last *wire.MoveConfirmed
	for i, mv := range moves {
		mc, derr := g.ApplyMove(i%2, mv)
		if derr != nil {
			t.Fatalf("move %d (%s): %v", i+1, mv, derr)
		}
		last = mc
	}
	return last
}

func TestApplyMoveAlternatesAndRecordsSAN(t *testing.T) {
	g := NewGame("g1", "alice")
	g.Seats[1] = Seat{Name: "bob", Joined: true, Connected: true}

	mc, derr := g.ApplyMove(0, "e2e4")
	if derr != nil {
		t.Fatalf("e2e4: %v", derr)
	}
	if mc.SAN != "e4" || mc.CurrentMover != 1 {
		t.Fatalf("mc = %+v", mc)
	}
	if g.Turn != 1 || len(g.MovesUCI) != 1 {
		t.Fatalf("game = %+v", g)
	}
	if g.FEN == wire.StartFEN {
		t.Fatal("FEN must advance")
	}
}

func TestApplyMoveRejectsIllegal(t *testing.T) {
	g := NewGame("g1", "alice")

	cases := []struct {
		uci  string
		code string
	}{
		{"e2e5", wire.CodeIllegalMove},
		{"nonsense", wire.CodeIllegalMove},
		{"e7e5", wire.CodeIllegalMove}, // black piece on white's turn
		{"e2e8", wire.CodeIllegalMove}, // last-rank target, still no promotion
	}
	for _, tc := range cases {
		if _, derr := g.ApplyMove(0, tc.uci); derr == nil || derr.Code != tc.code {
			t.Fatalf("%s: derr=%v, want %s", tc.uci, derr, tc.code)
		}
	}
	if len(g.MovesUCI) != 0 {
		t.Fatal("rejected moves must not mutate the game")
	}
}

func TestApplyMoveRequiresPromotionPiece(t *testing.T) {
	g := NewGame("g1", "alice")
	// March the a-pawn to promotion while black shuffles a knight.
	playAll(t, g,
		"a2a4", "g8f6", "a4a5", "f6g8", "a5a6", "g8f6", "a6b7", "f6g8",
	)

	if _, derr := g.ApplyMove(0, "b7a8"); derr == nil || derr.Code != wire.CodePromotionRequired {
		t.Fatalf("bare promotion push: %v, want PROMOTION_REQUIRED", derr)
	}
	mc, derr := g.ApplyMove(0, "b7a8q")
	if derr != nil {
		t.Fatalf("b7a8q: %v", derr)
	}
	if !mc.IsCapture {
		t.Fatal("rook capture on promotion must be flagged")
	}
	if !strings.HasPrefix(mc.SAN, "bxa8=Q") {
		t.Fatalf("SAN = %q", mc.SAN)
	}
}

func TestApplyMoveClassifiesCheckEvasionFailure(t *testing.T) {
	g := NewGame("g1", "alice")
	// 1.e4 e5 2.Bc4 Nc6 3.Qf3 a6 4.Qxf7+ and black tries to ignore the check.
	playAll(t, g,
		"e2e4", "e7e5", "f1c4", "b8c6", "d1f3", "a7a6",
	)
	mc, derr := g.ApplyMove(0, "f3f7")
	if derr != nil {
		t.Fatalf("Qxf7: %v", derr)
	}
	if !mc.IsCheck || !mc.IsCheckmate {
		t.Fatalf("scholar's mate flags = %+v", mc)
	}
	if g.Status != StatusFinished || g.Winner != "alice" {
		t.Fatalf("game = status %s winner %q", g.Status, g.Winner)
	}
	if snap := g.Snapshot(1); !snap.Terminal || snap.Reason != "checkmate" {
		t.Fatalf("snapshot terminal=%v reason=%q, want checkmate", snap.Terminal, snap.Reason)
	}
}

func TestApplyMoveKingInCheckCode(t *testing.T) {
	g := NewGame("g1", "alice")
	// 1.e4 e5 2.Qh5 Nc6 3.Qxf7+: the unsupported queen gives check that the
	// king can answer by capture, but black tries an unrelated move first.
	playAll(t, g,
		"e2e4", "e7e5", "d1h5", "b8c6", "h5f7",
	)
	if g.Terminal() {
		t.Fatal("an unsupported Qxf7+ is not mate")
	}
	if _, derr := g.ApplyMove(1, "a7a6"); derr == nil || derr.Code != wire.CodeKingInCheck {
		t.Fatalf("ignoring check: %v, want KING_IN_CHECK", derr)
	}
	if _, derr := g.ApplyMove(1, "e8f7"); derr != nil {
		t.Fatalf("capturing the queen: %v", derr)
	}
}

func TestCapturedPiecesGrouping(t *testing.T) {
	g := NewGame("g1", "alice")
	// 1.e4 d5 2.exd5 Qxd5: one black pawn and one white pawn taken.
	mc := playAll(t, g, "e2e4", "d7d5", "e4d5", "d8d5")

	if got := mc.Captured.FromBlack; len(got) != 1 || got[0] != "p" {
		t.Fatalf("from black = %v, want [p]", got)
	}
	if got := mc.Captured.FromWhite; len(got) != 1 || got[0] != "p" {
		t.Fatalf("from white = %v, want [p]", got)
	}
}

func TestStalemateDetection(t *testing.T) {
	g := NewGame("g1", "alice")
	// Fastest known stalemate (Sam Loyd): 10 moves, black to move with no
	// legal reply and no check.
	mc := playAll(t, g,
		"e2e3", "a7a5", "d1h5", "a8a6", "h5a5", "h7h5", "h2h4", "a6h6",
		"a5c7", "f7f6", "c7d7", "e8f7", "d7b7", "d8d3", "b7b8", "d3h7",
		"b8c8", "f7g6", "c8e6",
	)
	if !mc.IsDraw || !mc.IsStalemate {
		t.Fatalf("flags = %+v, want stalemate draw", mc)
	}
	if g.Status != StatusDraw {
		t.Fatalf("status = %s, want DRAW", g.Status)
	}
	snap := g.Snapshot(0)
	if !snap.Terminal || snap.Reason != "stalemate" {
		t.Fatalf("snapshot terminal=%v reason=%q, want stalemate", snap.Terminal, snap.Reason)
	}
}

func TestSnapshotCarriesLedgerAndSeat(t *testing.T) {
	g := NewGame("g1", "alice")
	g.Seats[1] = Seat{Name: "bob", Joined: true, Connected: true}
	playAll(t, g, "e2e4", "e7e5")

	snap := g.Snapshot(1)
	if snap.SeatIndex != 1 || snap.CurrentMover != 0 {
		t.Fatalf("snap = %+v", snap)
	}
	if len(snap.MoveLedger) != 2 || snap.MoveLedger[1].Seat != 1 {
		t.Fatalf("ledger = %+v", snap.MoveLedger)
	}
	if snap.DisplayNames[0] != "alice" || snap.DisplayNames[1] != "bob" {
		t.Fatalf("names = %v", snap.DisplayNames)
	}
	if snap.Position != g.FEN {
		t.Fatalf("position = %q, want %q", snap.Position, g.FEN)
	}
	if snap.Terminal || snap.Reason != "" {
		t.Fatalf("active game snapshot terminal=%v reason=%q", snap.Terminal, snap.Reason)
	}
}

func TestResetBoardKeepsSeats(t *testing.T) {
	g := NewGame("g1", "alice")
	g.Seats[1] = Seat{Name: "bob", Joined: true, Connected: true}
	playAll(t, g, "e2e4", "e7e5")
	g.DrawOfferBy = 0

	g.ResetBoard()
	if len(g.MovesUCI) != 0 || g.Turn != 0 || g.FEN != wire.StartFEN {
		t.Fatalf("game after reset = %+v", g)
	}
	if g.DrawOfferBy != -1 || g.Status != StatusActive {
		t.Fatalf("reset must clear offer and status, got %+v", g)
	}
	if g.Seats[0].Name != "alice" || g.Seats[1].Name != "bob" {
		t.Fatal("reset must keep seats")
	}
}
