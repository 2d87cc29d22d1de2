package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thevivotran/chessduel/internal/board"
	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/internal/rules"
	"github.com/thevivotran/chessduel/pkg/wire"
)

// maxDisplayName bounds player names the same way the web client did.
const maxDisplayName = 20

// DropResult is the immediate outcome of a drop gesture.
type DropResult int

const (
	// DropRejected: the piece visually reverts, nothing was sent.
	DropRejected DropResult = iota
	// DropSent: the move was pre-validated and emitted; a preview is staged.
	DropSent
	// DropAwaitingChoice: a promotion choice is pending; the piece reverts
	// and nothing is sent until the choice resolves.
	DropAwaitingChoice
)

// SessionState is the single owner of all session state. One mutex keeps
// exactly one handler in flight at a time, so gesture handlers and inbound
// message handlers never interleave on shared state.
type SessionState struct {
	mu       sync.Mutex
	sender   Sender
	listener Listener

	sess  *GameSession
	seat  int
	color Color

	cache    *board.PositionCache
	captured board.CapturedSet
	ledger   []wire.LedgerEntry

	moves MoveChannel
	promo PromotionFlow
	offer NegotiationProtocol

	lastMove  string
	lastCheck bool
}

func New(sender Sender, listener Listener) *SessionState {
	if listener == nil {
		listener = NopListener{}
	}
	return &SessionState{
		sender:   sender,
		listener: listener,
		seat:     -1,
		cache:    board.NewPositionCache(),
	}
}

// Create asks the server for a fresh session.
func (s *SessionState) Create(ctx context.Context, displayName string) error {
	env, err := wire.NewEnvelope(wire.TypeCreateSession, wire.CreateSession{
		DisplayName: boundName(displayName),
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, env)
}

// Join attaches to an existing session by id.
func (s *SessionState) Join(ctx context.Context, sessionID, displayName string) error {
	env, err := wire.NewEnvelope(wire.TypeJoinSession, wire.JoinSession{
		SessionID:   strings.TrimSpace(sessionID),
		DisplayName: boundName(displayName),
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, env)
}

// RequestReset asks the server to restart the session from the initial
// position. Local state changes only when the reset broadcast arrives.
func (s *SessionState) RequestReset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return ErrNoSession
	}
	env, err := wire.NewEnvelope(wire.TypeResetSession, nil)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, env)
}

// Leave tells the server this seat is gone and resets the local aggregate.
func (s *SessionState) Leave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return ErrNoSession
	}
	env, err := wire.NewEnvelope(wire.TypeLeaveSession, nil)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, env); err != nil {
		return err
	}
	s.clearSessionLocked()
	return nil
}

// OnDragAttempt gates a drag-start gesture: it is permitted only when this
// seat may act and the square holds this seat's own piece. No state changes
// and nothing is emitted either way.
func (s *SessionState) OnDragAttempt(from string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate() != nil {
		return false
	}
	return rules.OwnsPieceAt(s.cache.Authoritative(), from, s.color == ColorWhite)
}

// OnDropAttempt runs the full drop pipeline: turn gate, local legality
// probe, promotion detection, then submission. The returned DropResult tells
// the board widget whether to revert the piece.
func (s *SessionState) OnDropAttempt(ctx context.Context, from, to string) (DropResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A new gesture abandons any promotion choice that was pending.
	s.promo.Cancel()

	if err := s.gate(); err != nil {
		return DropRejected, err
	}
	if from == to {
		return DropRejected, ErrIllegalMove
	}
	if !rules.OwnsPieceAt(s.cache.Authoritative(), from, s.color == ColorWhite) {
		return DropRejected, ErrIllegalMove
	}

	mv := wire.Move{From: from, To: to}
	if !rules.IsLegal(s.cache.Authoritative(), mv) {
		return DropRejected, ErrIllegalMove
	}
	if rules.IsPromotionCandidate(s.cache.Authoritative(), from, to) {
		s.promo.Begin(mv)
		return DropAwaitingChoice, nil
	}
	if err := s.submitMove(ctx, mv); err != nil {
		return DropRejected, err
	}
	return DropSent, nil
}

// ChoosePromotion resolves the pending promotion with the chosen piece and
// submits the completed move.
func (s *SessionState) ChoosePromotion(ctx context.Context, piece string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mv, ok := s.promo.Resolve(piece)
	if !ok {
		return ErrNoPromotion
	}
	if err := s.gate(); err != nil {
		return err
	}
	return s.submitMove(ctx, mv)
}

// CancelPromotion dismisses the pending choice without sending anything.
func (s *SessionState) CancelPromotion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promo.Cancel()
}

// AwaitingPromotion reports whether a piece choice is pending.
func (s *SessionState) AwaitingPromotion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promo.Awaiting()
}

// HandleEnvelope dispatches one inbound server message. Authoritative
// updates are applied in arrival order and always fully replace prior
// authoritative state.
func (s *SessionState) HandleEnvelope(env *wire.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Type {
	case wire.TypeSessionCreated:
		var msg wire.SessionCreated
		if env.Decode(&msg) == nil {
			s.handleSessionCreated(&msg)
		}
	case wire.TypeSessionJoined:
		var msg wire.SessionJoined
		if env.Decode(&msg) == nil {
			s.handleSessionJoined(&msg)
		}
	case wire.TypeOpponentJoined:
		var msg wire.OpponentJoined
		if env.Decode(&msg) == nil {
			s.handleOpponentJoined(&msg)
		}
	case wire.TypeMoveConfirmed:
		var msg wire.MoveConfirmed
		if env.Decode(&msg) == nil {
			s.handleMoveConfirmed(&msg)
		}
	case wire.TypeStateSnapshot:
		var msg wire.StateSnapshot
		if env.Decode(&msg) == nil {
			s.handleStateSnapshot(&msg)
		}
	case wire.TypeSessionReset:
		var msg wire.SessionReset
		if env.Decode(&msg) == nil {
			s.handleSessionReset(&msg)
		}
	case wire.TypeOpponentLeft:
		var msg wire.OpponentLeft
		if env.Decode(&msg) == nil {
			s.handleOpponentLeft(&msg)
		}
	case wire.TypeDrawOffered:
		var msg wire.DrawOffered
		if env.Decode(&msg) == nil {
			s.handleDrawOffered(&msg)
		}
	case wire.TypeSessionEnded:
		var msg wire.SessionEnded
		if env.Decode(&msg) == nil {
			s.handleSessionEnded(&msg)
		}
	case wire.TypeProtocolError:
		var msg wire.ProtocolError
		if env.Decode(&msg) == nil {
			s.handleProtocolError(&msg)
		}
	default:
		obslog.L().Warn("unknown_message_type", zap.String("type", env.Type))
	}
}

// HandleTransportState reacts to connection changes: a reconnect triggers a
// resync request, a drop supersedes any active draw offer.
func (s *SessionState) HandleTransportState(ctx context.Context, connected bool) {
	s.mu.Lock()
	inSession := s.sess != nil
	if !connected && s.offer.Active() {
		s.offer.Clear()
		s.listener.OnOfferChange(-1, false)
	}
	s.mu.Unlock()

	if connected && inSession {
		if err := s.RequestResync(ctx); err != nil {
			obslog.L().Warn("resync_request_failed", zap.Error(err))
		}
	}
}

// Snapshot returns a read-only copy of the current session view.
func (s *SessionState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionState) snapshotLocked() Snapshot {
	snap := Snapshot{
		Seat:              s.seat,
		Color:             s.color,
		Position:          s.cache.Effective(),
		Captured:          s.captured.Snapshot(),
		Ledger:            append([]wire.LedgerEntry(nil), s.ledger...),
		LastMove:          s.lastMove,
		IsCheck:           s.lastCheck,
		MovePending:       s.moves.HasPending(),
		AwaitingPromotion: s.promo.Awaiting(),
		OfferActive:       s.offer.Active(),
		OfferedBySeat:     s.offer.OfferedBy(),
	}
	if s.sess != nil {
		snap.SessionID = s.sess.ID
		snap.CurrentMover = s.sess.CurrentMover
		snap.Terminal = s.sess.Terminal
		snap.TerminalReason = s.sess.TerminalReason
		if s.seat >= 0 {
			snap.OpponentName = s.sess.Seats[1-s.seat].DisplayName
		}
	}
	return snap
}

func (s *SessionState) handleSessionCreated(msg *wire.SessionCreated) {
	s.resetLocked(wire.StartFEN)
	s.sess = &GameSession{
		ID:        msg.SessionID,
		CreatedAt: time.Now(),
	}
	s.seat = msg.SeatIndex
	s.color = ColorForSeat(msg.SeatIndex)
	s.sess.Seats[msg.SeatIndex] = PlayerSeat{
		Index:       msg.SeatIndex,
		DisplayName: msg.DisplayName,
		Connected:   true,
	}
	obslog.L().Info("session_created",
		zap.String("session_id", msg.SessionID),
		zap.Int("seat", msg.SeatIndex),
		zap.String("color", msg.Color),
	)
	s.listener.OnNotice("", "Session "+msg.SessionID+" created. Share this code to invite an opponent.")
	s.listener.OnAuthoritativeUpdate(s.snapshotLocked())
}

func (s *SessionState) handleSessionJoined(msg *wire.SessionJoined) {
	s.resetLocked(wire.StartFEN)
	s.sess = &GameSession{
		ID:        msg.SessionID,
		CreatedAt: time.Now(),
	}
	s.seat = msg.SeatIndex
	s.color = ColorForSeat(msg.SeatIndex)
	s.sess.Seats[msg.SeatIndex] = PlayerSeat{Index: msg.SeatIndex, Connected: true}
	opp := 1 - msg.SeatIndex
	s.sess.Seats[opp] = PlayerSeat{Index: opp, DisplayName: msg.OpponentName, Connected: true}
	obslog.L().Info("session_joined",
		zap.String("session_id", msg.SessionID),
		zap.Int("seat", msg.SeatIndex),
		zap.String("opponent", msg.OpponentName),
	)
	s.listener.OnAuthoritativeUpdate(s.snapshotLocked())

	// The joined session may already be mid-game; ask for the full state
	// rather than assuming the start position.
	if err := s.requestResyncLocked(context.Background()); err != nil {
		obslog.L().Warn("resync_request_failed", zap.Error(err))
	}
}

func (s *SessionState) handleOpponentJoined(msg *wire.OpponentJoined) {
	if s.sess == nil || s.seat < 0 {
		return
	}
	s.cancelSpeculation()
	opp := 1 - s.seat
	s.sess.Seats[opp].DisplayName = msg.OpponentName
	s.sess.Seats[opp].Connected = true
	if msg.Position != "" {
		s.cache.SetAuthoritative(msg.Position)
	}
	s.listener.OnOpponentPresenceChange(msg.OpponentName, true)
	s.listener.OnAuthoritativeUpdate(s.snapshotLocked())
}

func (s *SessionState) handleSessionReset(msg *wire.SessionReset) {
	if s.sess == nil {
		return
	}
	s.cancelSpeculation()
	s.moves.clear()
	s.offer.Clear()
	s.ledger = nil
	s.captured.Clear()
	s.lastMove = ""
	s.lastCheck = false
	s.cache.Reset(msg.Position)
	s.sess.CurrentMover = 0
	s.sess.Terminal = false
	s.sess.TerminalReason = ReasonNone
	obslog.L().Info("session_reset", zap.String("session_id", s.sess.ID))
	s.listener.OnNotice("", msg.Message)
	s.listener.OnAuthoritativeUpdate(s.snapshotLocked())
}

func (s *SessionState) handleOpponentLeft(msg *wire.OpponentLeft) {
	if s.sess == nil || s.seat < 0 {
		return
	}
	// Presence changes, the session stays non-terminal: the opponent may
	// reconnect and resync.
	opp := 1 - s.seat
	s.sess.Seats[opp].Connected = false
	s.offer.Clear()
	s.listener.OnOfferChange(-1, false)
	s.listener.OnNotice("", msg.Message)
	s.listener.OnOpponentPresenceChange(s.sess.Seats[opp].DisplayName, false)
}

// handleProtocolError rolls the optimistic preview back and surfaces the
// notice. Every code is locally recoverable except SESSION_NOT_FOUND, which
// drops the client back to the idle state.
func (s *SessionState) handleProtocolError(msg *wire.ProtocolError) {
	s.cancelSpeculation()
	s.moves.clear()
	s.cache.Rollback()
	obslog.L().Warn("protocol_error",
		zap.String("code", msg.Code),
		zap.String("message", msg.Message),
	)
	s.listener.OnNotice(msg.Code, msg.Message)
	if msg.Code == wire.CodeSessionNotFound {
		s.clearSessionLocked()
		return
	}
	s.listener.OnAuthoritativeUpdate(s.snapshotLocked())
}

// cancelSpeculation is run at the top of every authoritative event handler:
// the server always wins, so a pending promotion choice must not survive a
// state change it was not made against.
func (s *SessionState) cancelSpeculation() {
	if s.promo.Cancel() {
		s.listener.OnNotice("", "promotion choice cancelled by server update")
	}
}

func (s *SessionState) resetLocked(fen string) {
	s.moves.clear()
	s.promo.Cancel()
	s.offer.Clear()
	s.ledger = nil
	s.captured.Clear()
	s.lastMove = ""
	s.lastCheck = false
	s.cache.Reset(fen)
}

func (s *SessionState) clearSessionLocked() {
	s.resetLocked(wire.StartFEN)
	s.sess = nil
	s.seat = -1
	s.color = ""
}

func boundName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > maxDisplayName {
		return string(runes[:maxDisplayName])
	}
	return name
}
