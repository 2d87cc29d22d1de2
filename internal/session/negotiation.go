package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/pkg/wire"
)

// NegotiationProtocol tracks the single active draw offer. Only the
// non-offering seat may accept; any terminal event, disconnect, or reset
// supersedes the offer unconditionally.
type NegotiationProtocol struct {
	offeredBy int
	active    bool
}

func (n *NegotiationProtocol) Active() bool { return n.active }

func (n *NegotiationProtocol) OfferedBy() int {
	if !n.active {
		return -1
	}
	return n.offeredBy
}

// Offer records an active offer. Idempotent for the same seat.
func (n *NegotiationProtocol) Offer(bySeat int) {
	n.offeredBy = bySeat
	n.active = true
}

// CanAccept reports whether seat may accept the current offer.
func (n *NegotiationProtocol) CanAccept(seat int) bool {
	return n.active && n.offeredBy != seat
}

// Clear supersedes whatever state the offer is in.
func (n *NegotiationProtocol) Clear() {
	n.active = false
	n.offeredBy = -1
}

// OfferDraw emits a draw offer. A second request while one is active is
// rejected locally without emitting anything.
func (s *SessionState) OfferDraw(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.seat < 0 {
		return ErrNoSession
	}
	if s.sess.Terminal {
		return ErrGameOver
	}
	if s.offer.Active() {
		return ErrOfferActive
	}
	env, err := wire.NewEnvelope(wire.TypeRequestDraw, nil)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, env); err != nil {
		return err
	}
	s.offer.Offer(s.seat)
	obslog.L().Info("draw_offered", zap.String("session_id", s.sess.ID), zap.Int("seat", s.seat))
	s.listener.OnOfferChange(s.seat, true)
	return nil
}

// AcceptDraw accepts the opponent's active offer. Accepting an absent offer
// or this seat's own offer is rejected locally.
func (s *SessionState) AcceptDraw(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.seat < 0 {
		return ErrNoSession
	}
	if !s.offer.Active() {
		return ErrNoOffer
	}
	if !s.offer.CanAccept(s.seat) {
		return ErrOwnOffer
	}
	env, err := wire.NewEnvelope(wire.TypeAcceptDraw, nil)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, env); err != nil {
		return err
	}
	obslog.L().Info("draw_accepted", zap.String("session_id", s.sess.ID), zap.Int("seat", s.seat))
	return nil
}

// DeclineDraw drops the offer locally. The original protocol declines
// silently; the offerer learns of it only when a later authoritative event
// supersedes the offer.
func (s *SessionState) DeclineDraw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offer.Active() {
		s.offer.Clear()
		s.listener.OnOfferChange(-1, false)
	}
}

// Resign concedes the session.
func (s *SessionState) Resign(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.seat < 0 {
		return ErrNoSession
	}
	if s.sess.Terminal {
		return ErrGameOver
	}
	env, err := wire.NewEnvelope(wire.TypeResign, nil)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, env); err != nil {
		return err
	}
	obslog.L().Info("resigned", zap.String("session_id", s.sess.ID), zap.Int("seat", s.seat))
	return nil
}

func (s *SessionState) handleDrawOffered(msg *wire.DrawOffered) {
	if s.sess == nil {
		return
	}
	s.offer.Offer(msg.BySeat)
	s.listener.OnOfferChange(msg.BySeat, true)
}

func (s *SessionState) handleSessionEnded(msg *wire.SessionEnded) {
	if s.sess == nil {
		return
	}
	s.cancelSpeculation()
	s.moves.clear()
	s.cache.Rollback()
	s.offer.Clear()

	s.sess.Terminal = true
	switch msg.Result {
	case "resignation":
		s.sess.TerminalReason = ReasonResignation
	default:
		s.sess.TerminalReason = ReasonAgreedDraw
	}
	obslog.L().Info("session_ended",
		zap.String("session_id", s.sess.ID),
		zap.String("result", msg.Result),
		zap.String("winner", msg.Winner),
	)
	s.listener.OnNotice("", msg.Message)
	s.listener.OnTerminal(s.snapshotLocked())
}
