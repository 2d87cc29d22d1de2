// Package rules wraps the external chess rules engine behind the small probe
// surface the session core needs. Probes are pure: they rebuild a scratch game
// from the given position, speculatively apply the candidate move on it, and
// report the hypothetical result without touching any live state.
package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/thevivotran/chessduel/pkg/wire"
)

// ProbeResult is the hypothetical outcome of one candidate move.
type ProbeResult struct {
	Legal             bool
	ResultingPosition string
	SAN               string
	IsCapture         bool
	IsCheck           bool
}

// Probe tests mv against the position. The scratch game is discarded; the
// caller decides whether to commit the resulting position as a preview.
func Probe(fen string, mv wire.Move) ProbeResult {
	game, err := gameFromPosition(fen)
	if err != nil {
		return ProbeResult{}
	}
	pos := game.Position()
	decoded, err := nchess.UCINotation{}.Decode(pos, mv.UCI())
	if err != nil {
		return ProbeResult{}
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, decoded)
	if err := game.Move(decoded, nil); err != nil {
		return ProbeResult{}
	}
	return ProbeResult{
		Legal:             true,
		ResultingPosition: game.FEN(),
		SAN:               san,
		IsCapture:         decoded.HasTag(nchess.Capture) || decoded.HasTag(nchess.EnPassant),
		IsCheck:           strings.ContainsAny(san, "+#"),
	}
}

// IsLegal reports whether mv is playable from the position. Moves that would
// be promotions are probed with a queen placeholder so the promotion dialog
// can open before the real piece is chosen.
func IsLegal(fen string, mv wire.Move) bool {
	if mv.Promotion == "" && IsPromotionCandidate(fen, mv.From, mv.To) {
		mv = mv.WithPromotion("q")
	}
	return Probe(fen, mv).Legal
}

// IsPromotionCandidate reports whether the move is a pawn reaching the final
// rank for its color. This is evaluated purely from the position's placement
// field, independent of legality, so a promotion choice can be requested even
// before the full move is validated.
func IsPromotionCandidate(fen, from, to string) bool {
	if len(from) != 2 || len(to) != 2 {
		return false
	}
	switch pieceAt(fen, from) {
	case 'P':
		return to[1] == '8'
	case 'p':
		return to[1] == '1'
	}
	return false
}

// OwnsPieceAt reports whether the side holds a piece on the square. Used by
// drag gating so a player cannot pick up the opponent's pieces.
func OwnsPieceAt(fen, square string, white bool) bool {
	if len(square) != 2 {
		return false
	}
	p := pieceAt(fen, square)
	if p == 0 {
		return false
	}
	if white {
		return p >= 'A' && p <= 'Z'
	}
	return p >= 'a' && p <= 'z'
}

// pieceAt reads the piece letter on a square straight out of the FEN
// placement field; 0 when the square is empty or the FEN is malformed.
func pieceAt(fen, square string) byte {
	placement, _, _ := strings.Cut(fen, " ")
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return 0
	}
	file := int(square[0] - 'a')
	rank := int(square[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return 0
	}
	row := ranks[7-rank]
	col := 0
	for i := 0; i < len(row); i++ {
		ch := row[i]
		if ch >= '1' && ch <= '8' {
			col += int(ch - '0')
			continue
		}
		if col == file {
			return ch
		}
		col++
	}
	return 0
}

// gameFromPosition rebuilds a scratch game rooted at the given position.
func gameFromPosition(fen string) (*nchess.Game, error) {
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		return nchess.NewGame(), nil
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse position %q: %w", fen, err)
	}
	return nchess.NewGame(option), nil
}
