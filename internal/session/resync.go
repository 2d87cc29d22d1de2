package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/pkg/wire"
)

// RequestResync asks the server for a full state snapshot. Triggered on join
// completion, transport reconnect, and late join; safe to call redundantly
// because applying a snapshot is a full replace.
func (s *SessionState) RequestResync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return ErrNoSession
	}
	return s.requestResyncLocked(ctx)
}

// requestResyncLocked emits the request-state message. Caller holds s.mu and
// has checked that a session exists.
func (s *SessionState) requestResyncLocked(ctx context.Context) error {
	env, err := wire.NewEnvelope(wire.TypeRequestState, nil)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, env); err != nil {
		return err
	}
	obslog.L().Info("resync_requested", zap.String("session_id", s.sess.ID))
	return nil
}

// handleStateSnapshot performs a full replace of position, mover, captures,
// seat identities and ledger. Never a merge: any pending move or pending
// promotion held locally is discarded, the authoritative snapshot wins. The
// replace is idempotent, so duplicate snapshots are harmless.
func (s *SessionState) handleStateSnapshot(snap *wire.StateSnapshot) {
	if s.sess == nil {
		return
	}
	s.cancelSpeculation()
	s.moves.clear()

	s.seat = snap.SeatIndex
	s.color = ColorForSeat(snap.SeatIndex)
	for i := range s.sess.Seats {
		if i < len(snap.DisplayNames) {
			s.sess.Seats[i].DisplayName = snap.DisplayNames[i]
		}
	}
	wasTerminal := s.sess.Terminal
	s.cache.SetAuthoritative(snap.Position)
	s.sess.CurrentMover = snap.CurrentMover
	s.sess.Terminal = snap.Terminal
	if snap.Terminal {
		s.sess.TerminalReason = TerminalReason(snap.Reason)
	} else {
		s.sess.TerminalReason = ReasonNone
	}
	s.captured.Replace(snap.Captured)
	s.ledger = append([]wire.LedgerEntry(nil), snap.MoveLedger...)
	if n := len(s.ledger); n > 0 {
		s.lastMove = s.ledger[n-1].UCI
	} else {
		s.lastMove = ""
	}
	s.lastCheck = false

	obslog.L().Info("snapshot_applied",
		zap.String("session_id", s.sess.ID),
		zap.Int("seat", snap.SeatIndex),
		zap.Int("ledger_len", len(s.ledger)),
	)
	s.listener.OnAuthoritativeUpdate(s.snapshotLocked())
	if snap.Terminal && !wasTerminal {
		s.listener.OnTerminal(s.snapshotLocked())
	}
}
