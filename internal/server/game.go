// Package server is the reference game server: session registry, rules
// authority, and broadcast fan-out over websocket peers.
package server

import (
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/thevivotran/chessduel/pkg/wire"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusDraw     Status = "DRAW"
	StatusResigned Status = "RESIGNED"
)

// Seat is one persisted player slot.
type Seat struct {
	Name      string `json:"name"`
	Joined    bool   `json:"joined"`
	Connected bool   `json:"connected"`
}

// Game is the persisted state of one session. The move list is the source of
// truth; FEN is maintained for presentation and snapshots only.
type Game struct {
	ID          string    `json:"id"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	FEN         string    `json:"fen"`
	Turn        int       `json:"turn"` // seat index to move
	Seats       [2]Seat   `json:"seats"`
	Status      Status    `json:"status"`
	Winner      string    `json:"winner,omitempty"`
	Loser       string    `json:"loser,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	DrawOfferBy int       `json:"draw_offer_by"` // -1 when no offer
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewGame(id, creatorName string) *Game {
	g := &Game{
		ID:          id,
		MovesUCI:    []string{},
		MovesSAN:    []string{},
		FEN:         wire.StartFEN,
		Status:      StatusActive,
		DrawOfferBy: -1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	g.Seats[0] = Seat{Name: strings.TrimSpace(creatorName), Joined: true, Connected: true}
	return g
}

// ResetBoard restarts the game from the initial position, keeping seats.
func (g *Game) ResetBoard() {
	g.MovesUCI = []string{}
	g.MovesSAN = []string{}
	g.FEN = wire.StartFEN
	g.Turn = 0
	g.Status = StatusActive
	g.Winner = ""
	g.Loser = ""
	g.Outcome = ""
	g.DrawOfferBy = -1
	g.UpdatedAt = time.Now()
}

func (g *Game) Terminal() bool { return g.Status != StatusActive }

// moverInCheck approximates the check status of the side to move from the
// previous move's SAN suffix. It misclassifies nothing when no move has been
// played yet.
func (g *Game) moverInCheck() bool {
	n := len(g.MovesSAN)
	return n > 0 && strings.HasSuffix(g.MovesSAN[n-1], "+")
}

// reconstruct replays the stored move list from the initial position.
// Returns nil when the stored list is corrupt.
func reconstruct(moves []string) *nchess.Game {
	game := nchess.NewGame()
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil
		}
	}
	return game
}

// ApplyMove validates and applies one move for the given seat. The returned
// DomainError classifies each refusal; on success the game is mutated and the
// confirmation payload is ready to broadcast.
func (g *Game) ApplyMove(seat int, uci string) (*wire.MoveConfirmed, *wire.DomainError) {
	uci = strings.ToLower(strings.TrimSpace(uci))

	game := reconstruct(g.MovesUCI)
	if game == nil {
		return nil, &wire.DomainError{Code: wire.CodeIllegalMove, Message: "stored game state is corrupt"}
	}
	pos := game.Position()

	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return nil, g.classifyRejection(uci)
	}
	if err := game.Move(mv, nil); err != nil {
		return nil, g.classifyRejection(uci)
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)

	g.MovesUCI = append(g.MovesUCI, uci)
	g.MovesSAN = append(g.MovesSAN, san)
	g.FEN = game.FEN()
	g.Turn = 1 - seat
	g.DrawOfferBy = -1
	g.UpdatedAt = time.Now()

	// Claim rules draws the moment they become available.
	for _, d := range game.EligibleDraws() {
		if d == nchess.ThreefoldRepetition || d == nchess.FiftyMoveRule {
			_ = game.Draw(d)
			break
		}
	}

	method := game.Method()
	mc := &wire.MoveConfirmed{
		Move:         uci,
		SAN:          san,
		Position:     g.FEN,
		CurrentMover: g.Turn,
		IsCapture:    mv.HasTag(nchess.Capture) || mv.HasTag(nchess.EnPassant),
		IsCheck:      strings.ContainsAny(san, "+#"),
		IsCheckmate:  method == nchess.Checkmate,
		Captured:     capturedLists(game),
	}

	switch game.Outcome() {
	case nchess.WhiteWon, nchess.BlackWon:
		g.Status = StatusFinished
		g.Winner = g.Seats[seat].Name
		g.Loser = g.Seats[1-seat].Name
		g.Outcome = strings.ToLower(method.String())
	case nchess.Draw:
		g.Status = StatusDraw
		mc.IsDraw = true
		mc.IsStalemate = method == nchess.Stalemate
		mc.IsInsufficientMaterial = method == nchess.InsufficientMaterial
		mc.IsRepetition = method == nchess.ThreefoldRepetition || method == nchess.FivefoldRepetition
		mc.IsFiftyMoves = method == nchess.FiftyMoveRule || method == nchess.SeventyFiveMoveRule
		switch {
		case mc.IsStalemate:
			g.Outcome = "stalemate"
		case mc.IsInsufficientMaterial:
			g.Outcome = "insufficient-material"
		case mc.IsRepetition:
			g.Outcome = "repetition"
		default:
			g.Outcome = "move-rule-draw"
		}
	}

	return mc, nil
}

// classifyRejection picks the most specific error code for a refused move:
// a 4-char move that becomes playable with a promotion suffix wants a piece
// choice, a refusal while the mover's king is under attack reads as a check
// problem, anything else is plainly illegal.
func (g *Game) classifyRejection(uci string) *wire.DomainError {
	if len(uci) == 4 && g.playableWithPromotion(uci) {
		return &wire.DomainError{Code: wire.CodePromotionRequired, Message: "promotion piece required"}
	}
	if g.moverInCheck() {
		return &wire.DomainError{Code: wire.CodeKingInCheck, Message: "your king is in check"}
	}
	return &wire.DomainError{Code: wire.CodeIllegalMove, Message: "illegal move: " + uci}
}

// playableWithPromotion replays the game on a scratch copy and reports
// whether uci with a queen suffix is a legal move. Decoding alone is not
// enough; UCI decode accepts any well-formed coordinate pair.
func (g *Game) playableWithPromotion(uci string) bool {
	scratch := reconstruct(g.MovesUCI)
	if scratch == nil {
		return false
	}
	mv, err := nchess.UCINotation{}.Decode(scratch.Position(), uci+"q")
	if err != nil {
		return false
	}
	return scratch.Move(mv, nil) == nil
}

// Snapshot builds the full-state payload for one peer's seat.
func (g *Game) Snapshot(seatIndex int) wire.StateSnapshot {
	ledger := make([]wire.LedgerEntry, 0, len(g.MovesSAN))
	for i := range g.MovesSAN {
		ledger = append(ledger, wire.LedgerEntry{
			Seq:  i + 1,
			SAN:  g.MovesSAN[i],
			UCI:  g.MovesUCI[i],
			Seat: i % 2,
		})
	}
	captured := wire.CapturedPieces{FromWhite: []string{}, FromBlack: []string{}}
	if game := reconstruct(g.MovesUCI); game != nil {
		captured = capturedLists(game)
	}
	return wire.StateSnapshot{
		Position:     g.FEN,
		CurrentMover: g.Turn,
		SeatIndex:    seatIndex,
		DisplayNames: []string{g.Seats[0].Name, g.Seats[1].Name},
		MoveLedger:   ledger,
		Captured:     captured,
		Terminal:     g.Terminal(),
		Reason:       g.terminalReason(),
	}
}

// terminalReason is the outcome tag a late joiner receives with a finished
// game's snapshot; empty while the game is active.
func (g *Game) terminalReason() string {
	if !g.Terminal() {
		return ""
	}
	return g.Outcome
}

// capturedLists walks the move history and collects each captured piece as a
// lowercase letter, grouped by the side it was taken from.
func capturedLists(game *nchess.Game) wire.CapturedPieces {
	out := wire.CapturedPieces{FromWhite: []string{}, FromBlack: []string{}}
	moves := game.Moves()
	positions := game.Positions()
	for i, mv := range moves {
		if i >= len(positions) {
			break
		}
		if !mv.HasTag(nchess.Capture) && !mv.HasTag(nchess.EnPassant) {
			continue
		}
		sq := mv.S2()
		if mv.HasTag(nchess.EnPassant) {
			file := mv.S2().File()
			rank := mv.S2().Rank()
			if positions[i].Turn() == nchess.White {
				sq = nchess.NewSquare(file, rank-1)
			} else {
				sq = nchess.NewSquare(file, rank+1)
			}
		}
		p := positions[i].Board().Piece(sq)
		if p == nchess.NoPiece {
			continue
		}
		letter := pieceLetter(p.Type())
		if p.Color() == nchess.White {
			out.FromWhite = append(out.FromWhite, letter)
		} else {
			out.FromBlack = append(out.FromBlack, letter)
		}
	}
	return out
}

func pieceLetter(t nchess.PieceType) string {
	switch t {
	case nchess.King:
		return "k"
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return "p"
	}
}
