package session

// CanAct is the single chokepoint for move-initiating input: true iff the
// session exists, this client holds a seat, the session is not terminal, and
// the seat owns the current turn. It is consulted before any other
// validation so out-of-turn or post-game-over gestures never reach the rules
// adapter and never emit a message.
func CanAct(seatIndex int, sess *GameSession) bool {
	if sess == nil || seatIndex < 0 || seatIndex > 1 {
		return false
	}
	if sess.Terminal {
		return false
	}
	return sess.CurrentMover == seatIndex
}

// gate applies CanAct plus the single-pending-move rule and reports the
// specific refusal. A second local input while a move awaits confirmation is
// rejected here, before validation or emission.
func (s *SessionState) gate() error {
	switch {
	case s.sess == nil:
		return ErrNoSession
	case s.seat < 0:
		return ErrNoSeat
	case s.sess.Terminal:
		return ErrGameOver
	case s.sess.CurrentMover != s.seat:
		return ErrNotYourTurn
	case s.moves.HasPending():
		return ErrMovePending
	}
	return nil
}
