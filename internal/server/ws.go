package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/pkg/wire"
)

// WSServer exposes the hub over a websocket endpoint plus a small REST
// surface for health probes.
type WSServer struct {
	hub   *Hub
	store Store
}

func NewWSServer(hub *Hub, store Store) *WSServer {
	return &WSServer{hub: hub, store: store}
}

// Routes returns the HTTP mux: /ws for game traffic, /api/health for probes.
func (s *WSServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

func (s *WSServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Count(r.Context())
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"active_sessions": n,
	})
}

func (s *WSServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}
	peer := &wsPeer{conn: conn}
	defer func() {
		s.hub.Disconnect(context.Background(), peer)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	ctx := r.Context()
	for {
		var env wire.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return
		}
		s.hub.HandleEnvelope(ctx, peer, &env)
	}
}

// wsPeer serializes writes to one connection; the hub may fan out from the
// handler of another peer's message.
type wsPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *wsPeer) Send(ctx context.Context, env *wire.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return wsjson.Write(ctx, p.conn, env)
}
