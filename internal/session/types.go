// Package session implements the client-side synchronization core for a
// two-player chess session: turn gating, optimistic move preview, the
// promotion sub-protocol, draw/resignation negotiation, and full-state
// resync. All authoritative state changes come from server messages; local
// prediction only ever stages a preview that the server can contradict.
package session

import (
	"context"
	"time"

	"github.com/thevivotran/chessduel/pkg/wire"
)

// Color identifies a chess side.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// ColorForSeat maps seat 0 to white and seat 1 to black.
func ColorForSeat(seat int) Color {
	if seat == 0 {
		return ColorWhite
	}
	return ColorBlack
}

// TerminalReason says why a session stopped accepting moves.
type TerminalReason string

const (
	ReasonNone                 TerminalReason = ""
	ReasonCheckmate            TerminalReason = "checkmate"
	ReasonStalemate            TerminalReason = "stalemate"
	ReasonInsufficientMaterial TerminalReason = "insufficient-material"
	ReasonRepetition           TerminalReason = "repetition"
	ReasonMoveRuleDraw         TerminalReason = "move-rule-draw"
	ReasonResignation          TerminalReason = "resignation"
	ReasonAgreedDraw           TerminalReason = "agreed-draw"
)

// PlayerSeat is one of the two fixed player slots, bound to a color.
type PlayerSeat struct {
	Index       int
	DisplayName string
	Connected   bool
}

// GameSession is the aggregate session identity and status. It is created on
// a create/join acknowledgment and mutated only by confirmed server messages,
// never by local prediction.
type GameSession struct {
	ID             string
	Seats          [2]PlayerSeat
	CurrentMover   int
	Terminal       bool
	TerminalReason TerminalReason
	CreatedAt      time.Time
}

// Sender emits one outbound protocol envelope. The websocket transport
// satisfies this; tests substitute a recorder.
type Sender interface {
	Send(ctx context.Context, env *wire.Envelope) error
}

// Snapshot is the read-only view handed to presentation collaborators.
// Collaborators must never mutate core state through it; all slices are
// copies.
type Snapshot struct {
	SessionID    string
	Seat         int
	Color        Color
	OpponentName string

	Position       string // effective position: preview while one is staged
	CurrentMover   int
	Terminal       bool
	TerminalReason TerminalReason

	Captured wire.CapturedPieces
	Ledger   []wire.LedgerEntry

	LastMove string
	IsCheck  bool

	MovePending       bool
	AwaitingPromotion bool
	OfferActive       bool
	OfferedBySeat     int
}

// Listener receives session callbacks. Implementations run inline on the
// dispatch path and must not call back into the session.
type Listener interface {
	OnAuthoritativeUpdate(snap Snapshot)
	OnTerminal(snap Snapshot)
	OnOpponentPresenceChange(name string, connected bool)
	OnOfferChange(offeredBySeat int, active bool)
	OnNotice(code, message string)
}

// NopListener satisfies Listener with no behavior.
type NopListener struct{}

func (NopListener) OnAuthoritativeUpdate(Snapshot)        {}
func (NopListener) OnTerminal(Snapshot)                   {}
func (NopListener) OnOpponentPresenceChange(string, bool) {}
func (NopListener) OnOfferChange(int, bool)               {}
func (NopListener) OnNotice(string, string)               {}

// Local rejection errors. These never reach the wire; they are the
// client-side gate refusing input before a message is built.
var (
	ErrNoSession   = errf("not in a session")
	ErrNoSeat      = errf("no seat assigned in this session")
	ErrGameOver    = errf("session is over")
	ErrNotYourTurn = errf("not this seat's turn")
	ErrMovePending = errf("a move is already awaiting confirmation")
	ErrIllegalMove = errf("move rejected by local rules check")
	ErrNoPromotion = errf("no promotion choice is pending")
	ErrOfferActive = errf("a draw offer is already active")
	ErrNoOffer     = errf("no draw offer to accept")
	ErrOwnOffer    = errf("cannot accept this seat's own offer")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
