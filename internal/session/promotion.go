package session

import (
	"strings"

	"github.com/thevivotran/chessduel/pkg/wire"
)

// PromotionState is the promotion sub-protocol's explicit suspension state.
type PromotionState int

const (
	PromoIdle PromotionState = iota
	PromoAwaitingChoice
)

// PromotionFlow suspends move submission while a pawn-promotion piece choice
// is pending. The underlying drag gesture visually reverts while suspended;
// nothing is sent until the choice resolves. Any authoritative server event
// arriving mid-choice cancels the flow so a stale promotion is never sent.
type PromotionFlow struct {
	state   PromotionState
	pending wire.Move // from/to only, promotion unset
}

func (f *PromotionFlow) Awaiting() bool { return f.state == PromoAwaitingChoice }

func (f *PromotionFlow) State() PromotionState { return f.state }

// Begin suspends submission of mv until a piece is chosen.
func (f *PromotionFlow) Begin(mv wire.Move) {
	f.state = PromoAwaitingChoice
	f.pending = wire.Move{From: mv.From, To: mv.To}
}

// Resolve completes the flow with the chosen piece, returning the full move
// to submit. ok is false when no choice is pending or the piece is invalid.
func (f *PromotionFlow) Resolve(piece string) (mv wire.Move, ok bool) {
	if f.state != PromoAwaitingChoice {
		return wire.Move{}, false
	}
	p := strings.ToLower(strings.TrimSpace(piece))
	if len(p) != 1 || !strings.Contains("qrbn", p) {
		return wire.Move{}, false
	}
	mv = f.pending.WithPromotion(p)
	f.state = PromoIdle
	f.pending = wire.Move{}
	return mv, true
}

// Cancel abandons the pending choice; reports whether one was pending.
func (f *PromotionFlow) Cancel() bool {
	cancelled := f.state == PromoAwaitingChoice
	f.state = PromoIdle
	f.pending = wire.Move{}
	return cancelled
}
