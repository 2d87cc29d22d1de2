package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/internal/rules"
	"github.com/thevivotran/chessduel/pkg/wire"
)

// MoveChannel holds the single in-flight move between local validation and
// server confirmation. It exists to clear optimistic UI, never to second-
// guess the server: confirmations are applied last-writer-wins whether or
// not they match the pending move.
type MoveChannel struct {
	pending *wire.Move
}

func (c *MoveChannel) HasPending() bool { return c.pending != nil }

func (c *MoveChannel) Pending() (wire.Move, bool) {
	if c.pending == nil {
		return wire.Move{}, false
	}
	return *c.pending, true
}

func (c *MoveChannel) stage(mv wire.Move) { c.pending = &mv }

func (c *MoveChannel) clear() { c.pending = nil }

// submitMove probes the move, stages the optimistic preview, and emits the
// outbound message. Caller must hold s.mu and have passed the gate.
func (s *SessionState) submitMove(ctx context.Context, mv wire.Move) error {
	probe := rules.Probe(s.cache.Authoritative(), mv)
	if !probe.Legal {
		return ErrIllegalMove
	}
	env, err := wire.NewEnvelope(wire.TypeSubmitMove, wire.SubmitMove{Move: mv.UCI()})
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, env); err != nil {
		return err
	}
	s.cache.StagePreview(probe.ResultingPosition)
	s.moves.stage(mv)
	obslog.L().Info("move_submitted",
		zap.String("session_id", s.sess.ID),
		zap.Int("seat", s.seat),
		zap.String("uci", mv.UCI()),
	)
	return nil
}

// handleMoveConfirmed applies one authoritative move result: position, mover,
// captures and ledger are replaced or appended as a unit, and terminal status
// is derived from the payload flags.
func (s *SessionState) handleMoveConfirmed(mc *wire.MoveConfirmed) {
	if s.sess == nil {
		return
	}
	s.cancelSpeculation()
	s.moves.clear()

	moverSeat := 1 - mc.CurrentMover
	s.cache.SetAuthoritative(mc.Position)
	s.sess.CurrentMover = mc.CurrentMover
	s.captured.Replace(mc.Captured)
	s.ledger = append(s.ledger, wire.LedgerEntry{
		Seq:  len(s.ledger) + 1,
		SAN:  mc.SAN,
		UCI:  mc.Move,
		Seat: moverSeat,
	})
	s.lastMove = mc.Move
	s.lastCheck = mc.IsCheck

	reason, terminal := outcomeFromConfirmation(mc)
	if terminal {
		s.sess.Terminal = true
		s.sess.TerminalReason = reason
		s.offer.Clear()
	}

	obslog.L().Info("move_confirmed",
		zap.String("session_id", s.sess.ID),
		zap.String("uci", mc.Move),
		zap.Int("current_mover", mc.CurrentMover),
		zap.Bool("terminal", terminal),
	)
	s.listener.OnAuthoritativeUpdate(s.snapshotLocked())
	if terminal {
		s.listener.OnTerminal(s.snapshotLocked())
	}
}

// outcomeFromConfirmation derives terminal status from the confirmation's
// boolean flags with priority checkmate > draw (sub-reasoned by flavor) >
// everything else.
func outcomeFromConfirmation(mc *wire.MoveConfirmed) (TerminalReason, bool) {
	switch {
	case mc.IsCheckmate:
		return ReasonCheckmate, true
	case !mc.IsDraw:
		return ReasonNone, false
	case mc.IsStalemate:
		return ReasonStalemate, true
	case mc.IsInsufficientMaterial:
		return ReasonInsufficientMaterial, true
	case mc.IsRepetition:
		return ReasonRepetition, true
	default:
		// Fifty-move and any unflagged rules draw.
		return ReasonMoveRuleDraw, true
	}
}
