package rules

import (
	"testing"

	"github.com/thevivotran/chessduel/pkg/wire"
)

// White pawn on e7 about to promote; black king tucked away on a8.
const promoFEN = "k7/4P3/8/8/8/8/8/4K3 w - - 0 1"

func mv(t *testing.T, raw string) wire.Move {
	t.Helper()
	m, err := wire.ParseMove(raw)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", raw, err)
	}
	return m
}

func TestProbeLegalMove(t *testing.T) {
	res := Probe(wire.StartFEN, mv(t, "e2e4"))
	if !res.Legal {
		t.Fatal("e2e4 from the start position should be legal")
	}
	if res.ResultingPosition == "" || res.ResultingPosition == wire.StartFEN {
		t.Fatalf("probe did not produce a new position: %q", res.ResultingPosition)
	}
	if res.SAN != "e4" {
		t.Fatalf("SAN = %q, want e4", res.SAN)
	}
	if res.IsCapture || res.IsCheck {
		t.Fatalf("unexpected flags: %+v", res)
	}
}

func TestProbeIllegalMove(t *testing.T) {
	if res := Probe(wire.StartFEN, mv(t, "e2e5")); res.Legal {
		t.Fatal("e2e5 should be illegal")
	}
	// Out of turn: black piece while white to move.
	if res := Probe(wire.StartFEN, mv(t, "e7e5")); res.Legal {
		t.Fatal("e7e5 should be illegal with white to move")
	}
}

func TestProbeIsPure(t *testing.T) {
	first := Probe(wire.StartFEN, mv(t, "e2e4"))
	second := Probe(wire.StartFEN, mv(t, "e2e4"))
	if first.ResultingPosition != second.ResultingPosition {
		t.Fatal("probing twice from the same position diverged")
	}
}

func TestIsPromotionCandidate(t *testing.T) {
	if !IsPromotionCandidate(promoFEN, "e7", "e8") {
		t.Fatal("white pawn e7->e8 must be a promotion candidate")
	}
	if IsPromotionCandidate(promoFEN, "e7", "e6") {
		t.Fatal("e7->e6 is not a promotion")
	}
	if IsPromotionCandidate(wire.StartFEN, "g1", "e8") {
		t.Fatal("non-pawn source square must not be a candidate")
	}
	black := "4k3/8/8/8/8/8/4p3/K7 b - - 0 1"
	if !IsPromotionCandidate(black, "e2", "e1") {
		t.Fatal("black pawn e2->e1 must be a promotion candidate")
	}
}

func TestProbePromotionMatchesDirectMove(t *testing.T) {
	// Legality with the queen placeholder, then the real choice.
	if !IsLegal(promoFEN, mv(t, "e7e8")) {
		t.Fatal("promotion candidate should pre-validate with placeholder")
	}
	res := Probe(promoFEN, mv(t, "e7e8r"))
	if !res.Legal {
		t.Fatal("e7e8r should be legal")
	}
	direct := Probe(promoFEN, wire.Move{From: "e7", To: "e8", Promotion: "r"})
	if res.ResultingPosition != direct.ResultingPosition {
		t.Fatal("chosen-piece probe diverged from direct move")
	}
}

func TestProbeFlagsCaptureAndCheck(t *testing.T) {
	// After 1.e4 e5 2.Bc4 Nc6, Bxf7+ is a capture giving check.
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/8/PPPP1PPP/RNBQK1NR w KQkq - 2 3"
	res := Probe(fen, mv(t, "c4f7"))
	if !res.Legal || !res.IsCapture || !res.IsCheck {
		t.Fatalf("expected legal capture with check, got %+v", res)
	}
}
