package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thevivotran/chessduel/internal/apiclient"
	appcfg "github.com/thevivotran/chessduel/internal/config"
	"github.com/thevivotran/chessduel/internal/console"
	"github.com/thevivotran/chessduel/internal/notices"
	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/internal/session"
	"github.com/thevivotran/chessduel/internal/transport"
)

func main() {
	cfg, err := appcfg.LoadClient()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("log init error: %v", err)
	}

	cat, err := notices.New(cfg.MessageOverrideDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	// Probe the server before dialing the websocket.
	api := apiclient.NewClient(cfg.ServerBaseURL)
	hctx, hcancel := context.WithTimeout(context.Background(), 10*time.Second)
	health, err := api.CheckHealth(hctx)
	hcancel()
	if err != nil {
		log.Fatalf("server unreachable: %v", err)
	}
	obslog.L().Info("server_healthy", zap.Int("active_sessions", health.ActiveSessions))

	presenter := console.New(os.Stdout, cat)
	ws := transport.NewWebSocket(cfg.ServerWSURL, cfg.MaxReconnectAttempts)
	state := session.New(ws, presenter)

	ws.OnEnvelope(state.HandleEnvelope)
	ws.OnStateChange(func(st transport.State) {
		state.HandleTransportState(context.Background(), st == transport.StateConnected)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		log.Fatalf("ws connect error: %v", err)
	}

	ctx := context.Background()
	if cfg.JoinCode != "" {
		err = state.Join(ctx, cfg.JoinCode, cfg.DisplayName)
	} else {
		err = state.Create(ctx, cfg.DisplayName)
	}
	if err != nil {
		log.Fatalf("session setup error: %v", err)
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("Enter moves in coordinate form (e2e4). Type 'help' for commands.")
	for {
		select {
		case <-sigCh:
			shutdown(state, ws)
			return
		case line, ok := <-lines:
			if !ok {
				shutdown(state, ws)
				return
			}
			if quit := runCommand(ctx, state, line); quit {
				shutdown(state, ws)
				return
			}
		}
	}
}

func shutdown(state *session.SessionState, ws *transport.WebSocket) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = state.Leave(ctx)
	_ = ws.Close(ctx)
}

// runCommand interprets one input line; the returned bool asks to quit.
func runCommand(ctx context.Context, state *session.SessionState, line string) bool {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(parts) == 0 {
		return false
	}

	var err error
	switch parts[0] {
	case "quit", "exit":
		return true
	case "help":
		fmt.Println(helpText())
	case "draw":
		err = state.OfferDraw(ctx)
	case "accept":
		err = state.AcceptDraw(ctx)
	case "decline":
		state.DeclineDraw()
	case "resign":
		err = state.Resign(ctx)
	case "reset":
		err = state.RequestReset(ctx)
	case "sync":
		err = state.RequestResync(ctx)
	case "promote":
		if len(parts) < 2 {
			fmt.Println("Usage: promote <q|r|b|n>")
			break
		}
		err = state.ChoosePromotion(ctx, parts[1])
	default:
		err = dropMove(ctx, state, parts[0])
	}
	if err != nil {
		fmt.Println(err)
	}
	return false
}

func dropMove(ctx context.Context, state *session.SessionState, uci string) error {
	if len(uci) != 4 && len(uci) != 5 {
		return fmt.Errorf("unrecognized command %q; type 'help'", uci)
	}
	from, to := uci[:2], uci[2:4]
	res, err := state.OnDropAttempt(ctx, from, to)
	if err != nil {
		return err
	}
	if res == session.DropAwaitingChoice {
		if len(uci) == 5 {
			return state.ChoosePromotion(ctx, uci[4:])
		}
		fmt.Println("Promotion! Choose with: promote <q|r|b|n>")
	}
	return nil
}

func helpText() string {
	return strings.Join([]string{
		"Commands:",
		"  e2e4        play a move (e7e8q to promote)",
		"  promote q   resolve a pending promotion",
		"  draw        offer a draw",
		"  accept      accept the opponent's draw offer",
		"  decline     dismiss the opponent's draw offer",
		"  resign      resign the game",
		"  reset       restart the board",
		"  sync        re-request the full game state",
		"  quit        leave the session and exit",
	}, "\n")
}
