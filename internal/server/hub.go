package server

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/pkg/wire"
)

// Peer is one connected client. The websocket layer satisfies this; tests
// substitute a recorder.
type Peer interface {
	Send(ctx context.Context, env *wire.Envelope) error
}

type seatRef struct {
	gameID string
	seat   int
}

// Hub routes client envelopes to session operations and fans broadcasts out
// to the session's peers. One mutex serializes all session mutations.
type Hub struct {
	mu    sync.Mutex
	store Store
	peers map[Peer]*seatRef
	seats map[string][2]Peer
}

func NewHub(store Store) *Hub {
	return &Hub{
		store: store,
		peers: make(map[Peer]*seatRef),
		seats: make(map[string][2]Peer),
	}
}

// HandleEnvelope dispatches one client message.
func (h *Hub) HandleEnvelope(ctx context.Context, p Peer, env *wire.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch env.Type {
	case wire.TypeCreateSession:
		var msg wire.CreateSession
		if env.Decode(&msg) == nil {
			h.handleCreate(ctx, p, &msg)
		}
	case wire.TypeJoinSession:
		var msg wire.JoinSession
		if env.Decode(&msg) == nil {
			h.handleJoin(ctx, p, &msg)
		}
	case wire.TypeSubmitMove:
		var msg wire.SubmitMove
		if env.Decode(&msg) == nil {
			h.handleMove(ctx, p, &msg)
		}
	case wire.TypeRequestState:
		h.handleRequestState(ctx, p)
	case wire.TypeLeaveSession:
		h.detachPeer(ctx, p, true)
	case wire.TypeRequestDraw:
		h.handleRequestDraw(ctx, p)
	case wire.TypeAcceptDraw:
		h.handleAcceptDraw(ctx, p)
	case wire.TypeResign:
		h.handleResign(ctx, p)
	case wire.TypeResetSession:
		h.handleReset(ctx, p)
	default:
		obslog.L().Warn("unknown_client_message", zap.String("type", env.Type))
	}
}

// Disconnect handles a dropped connection: the seat stays reserved so the
// player can rejoin and resync, but the opponent learns of the departure.
func (h *Hub) Disconnect(ctx context.Context, p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachPeer(ctx, p, false)
}

func (h *Hub) handleCreate(ctx context.Context, p Peer, msg *wire.CreateSession) {
	h.detachPeer(ctx, p, true)

	id := newSessionID()
	g := NewGame(id, msg.DisplayName)
	if err := h.store.Save(ctx, g); err != nil {
		h.sendError(ctx, p, wire.CodeSessionNotFound, "failed to store session")
		return
	}
	h.register(p, id, 0)
	obslog.L().Info("session_created",
		zap.String("session_id", id),
		zap.String("creator", g.Seats[0].Name),
	)
	h.send(ctx, p, wire.TypeSessionCreated, wire.SessionCreated{
		SessionID:   id,
		SeatIndex:   0,
		Color:       "white",
		DisplayName: g.Seats[0].Name,
	})
}

func (h *Hub) handleJoin(ctx context.Context, p Peer, msg *wire.JoinSession) {
	g, err := h.store.Get(ctx, strings.TrimSpace(msg.SessionID))
	if err != nil || g == nil {
		h.sendError(ctx, p, wire.CodeSessionNotFound, "no session with that code")
		return
	}

	seat := -1
	switch {
	case !g.Seats[1].Joined:
		seat = 1
	case !g.Seats[1].Connected:
		seat = 1 // rejoin a vacated seat
	case !g.Seats[0].Connected:
		seat = 0
	default:
		h.sendError(ctx, p, wire.CodeSessionNotFound, "session is full")
		return
	}

	h.detachPeer(ctx, p, true)
	name := strings.TrimSpace(msg.DisplayName)
	if name != "" || !g.Seats[seat].Joined {
		g.Seats[seat].Name = name
	}
	g.Seats[seat].Joined = true
	g.Seats[seat].Connected = true
	if err := h.store.Save(ctx, g); err != nil {
		h.sendError(ctx, p, wire.CodeSessionNotFound, "failed to store session")
		return
	}
	h.register(p, g.ID, seat)

	obslog.L().Info("session_joined",
		zap.String("session_id", g.ID),
		zap.Int("seat", seat),
		zap.String("name", g.Seats[seat].Name),
	)
	h.send(ctx, p, wire.TypeSessionJoined, wire.SessionJoined{
		SessionID:    g.ID,
		SeatIndex:    seat,
		Color:        colorName(seat),
		OpponentName: g.Seats[1-seat].Name,
	})
	if opp := h.peerAt(g.ID, 1-seat); opp != nil {
		h.send(ctx, opp, wire.TypeOpponentJoined, wire.OpponentJoined{
			OpponentName: g.Seats[seat].Name,
			Position:     g.FEN,
		})
	}
}

func (h *Hub) handleMove(ctx context.Context, p Peer, msg *wire.SubmitMove) {
	ref, g := h.boundGame(ctx, p)
	if g == nil {
		return
	}
	if g.Terminal() {
		h.sendError(ctx, p, wire.CodeIllegalMove, "the game is over")
		return
	}
	if !g.Seats[1-ref.seat].Joined {
		h.sendError(ctx, p, wire.CodeOpponentNotPresent, "no opponent has joined yet")
		return
	}
	if g.Turn != ref.seat {
		h.sendError(ctx, p, wire.CodeNotYourTurn, "it is not your turn")
		return
	}

	mc, derr := g.ApplyMove(ref.seat, msg.Move)
	if derr != nil {
		h.sendError(ctx, p, derr.Code, derr.Message)
		return
	}
	if err := h.store.Save(ctx, g); err != nil {
		h.sendError(ctx, p, wire.CodeIllegalMove, "failed to store session")
		return
	}
	obslog.L().Info("move_applied",
		zap.String("session_id", g.ID),
		zap.Int("seat", ref.seat),
		zap.String("uci", mc.Move),
		zap.String("status", string(g.Status)),
	)
	h.broadcast(ctx, g.ID, wire.TypeMoveConfirmed, mc)
}

func (h *Hub) handleRequestState(ctx context.Context, p Peer) {
	ref, g := h.boundGame(ctx, p)
	if g == nil {
		return
	}
	h.send(ctx, p, wire.TypeStateSnapshot, g.Snapshot(ref.seat))
}

func (h *Hub) handleRequestDraw(ctx context.Context, p Peer) {
	ref, g := h.boundGame(ctx, p)
	if g == nil {
		return
	}
	if g.Terminal() {
		return
	}
	g.DrawOfferBy = ref.seat
	if err := h.store.Save(ctx, g); err != nil {
		return
	}
	if opp := h.peerAt(g.ID, 1-ref.seat); opp != nil {
		h.send(ctx, opp, wire.TypeDrawOffered, wire.DrawOffered{BySeat: ref.seat})
	}
}

func (h *Hub) handleAcceptDraw(ctx context.Context, p Peer) {
	ref, g := h.boundGame(ctx, p)
	if g == nil {
		return
	}
	if g.Terminal() || g.DrawOfferBy != 1-ref.seat {
		return
	}
	g.Status = StatusDraw
	g.Outcome = "agreed-draw"
	g.DrawOfferBy = -1
	if err := h.store.Save(ctx, g); err != nil {
		return
	}
	obslog.L().Info("draw_agreed", zap.String("session_id", g.ID))
	h.broadcast(ctx, g.ID, wire.TypeSessionEnded, wire.SessionEnded{
		Result:  "draw",
		Message: "Draw agreed",
	})
}

func (h *Hub) handleResign(ctx context.Context, p Peer) {
	ref, g := h.boundGame(ctx, p)
	if g == nil {
		return
	}
	if g.Terminal() {
		return
	}
	g.Status = StatusResigned
	g.Winner = g.Seats[1-ref.seat].Name
	g.Loser = g.Seats[ref.seat].Name
	g.Outcome = "resignation"
	g.DrawOfferBy = -1
	if err := h.store.Save(ctx, g); err != nil {
		return
	}
	obslog.L().Info("resignation",
		zap.String("session_id", g.ID),
		zap.String("loser", g.Loser),
	)
	h.broadcast(ctx, g.ID, wire.TypeSessionEnded, wire.SessionEnded{
		Result:  "resignation",
		Winner:  g.Winner,
		Loser:   g.Loser,
		Message: g.Loser + " resigned",
	})
}

func (h *Hub) handleReset(ctx context.Context, p Peer) {
	_, g := h.boundGame(ctx, p)
	if g == nil {
		return
	}
	g.ResetBoard()
	if err := h.store.Save(ctx, g); err != nil {
		return
	}
	obslog.L().Info("session_reset", zap.String("session_id", g.ID))
	h.broadcast(ctx, g.ID, wire.TypeSessionReset, wire.SessionReset{
		Position: g.FEN,
		Message:  "The board has been reset",
	})
}

// detachPeer unregisters p. When leaving is true the seat is vacated; a
// bare disconnect only flips the connected flag.
func (h *Hub) detachPeer(ctx context.Context, p Peer, leaving bool) {
	ref, ok := h.peers[p]
	if !ok {
		return
	}
	delete(h.peers, p)
	pair := h.seats[ref.gameID]
	pair[ref.seat] = nil
	h.seats[ref.gameID] = pair

	g, err := h.store.Get(ctx, ref.gameID)
	if err != nil || g == nil {
		return
	}
	g.Seats[ref.seat].Connected = false
	if leaving {
		g.Seats[ref.seat].Joined = false
	}
	g.DrawOfferBy = -1

	if !g.Seats[0].Joined && !g.Seats[1].Joined {
		_ = h.store.Delete(ctx, g.ID)
		delete(h.seats, g.ID)
		obslog.L().Info("session_discarded", zap.String("session_id", g.ID))
		return
	}
	_ = h.store.Save(ctx, g)

	if opp := h.peerAt(g.ID, 1-ref.seat); opp != nil {
		h.send(ctx, opp, wire.TypeOpponentLeft, wire.OpponentLeft{
			Message: g.Seats[ref.seat].Name + " left the game",
		})
	}
}

func (h *Hub) register(p Peer, gameID string, seat int) {
	h.peers[p] = &seatRef{gameID: gameID, seat: seat}
	pair := h.seats[gameID]
	pair[seat] = p
	h.seats[gameID] = pair
}

func (h *Hub) peerAt(gameID string, seat int) Peer {
	pair, ok := h.seats[gameID]
	if !ok {
		return nil
	}
	return pair[seat]
}

// boundGame resolves the caller's session, reporting NOT_IN_SESSION or
// SESSION_NOT_FOUND to the peer when it cannot.
func (h *Hub) boundGame(ctx context.Context, p Peer) (*seatRef, *Game) {
	ref, ok := h.peers[p]
	if !ok {
		h.sendError(ctx, p, wire.CodeNotInSession, "you are not in a session")
		return nil, nil
	}
	g, err := h.store.Get(ctx, ref.gameID)
	if err != nil || g == nil {
		h.sendError(ctx, p, wire.CodeSessionNotFound, "session expired")
		return ref, nil
	}
	return ref, g
}

func (h *Hub) broadcast(ctx context.Context, gameID, msgType string, payload any) {
	for seat := 0; seat < 2; seat++ {
		if p := h.peerAt(gameID, seat); p != nil {
			h.send(ctx, p, msgType, payload)
		}
	}
}

func (h *Hub) send(ctx context.Context, p Peer, msgType string, payload any) {
	env, err := wire.NewEnvelope(msgType, payload)
	if err != nil {
		obslog.L().Error("encode_failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	if err := p.Send(ctx, env); err != nil {
		obslog.L().Warn("send_failed", zap.String("type", msgType), zap.Error(err))
	}
}

func (h *Hub) sendError(ctx context.Context, p Peer, code, message string) {
	h.send(ctx, p, wire.TypeProtocolError, wire.ProtocolError{Code: code, Message: message})
}

func colorName(seat int) string {
	if seat == 0 {
		return "white"
	}
	return "black"
}

// newSessionID is the shareable join code: the first uuid group is short
// enough to type and random enough for a casual game.
func newSessionID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
