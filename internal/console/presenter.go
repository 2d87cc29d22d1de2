// Package console renders session updates for a terminal player: board
// diagrams from position strings, the move ledger, and catalog notices.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/thevivotran/chessduel/internal/notices"
	"github.com/thevivotran/chessduel/internal/session"
	"github.com/thevivotran/chessduel/pkg/wire"
)

// Presenter writes session events to out. It satisfies session.Listener and
// never calls back into the session.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer
	cat *notices.Catalog
}

func New(out io.Writer, cat *notices.Catalog) *Presenter {
	return &Presenter{out: out, cat: cat}
}

func (p *Presenter) OnAuthoritativeUpdate(snap session.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, RenderBoard(snap.Position, snap.Color == session.ColorBlack))
	if len(snap.Ledger) > 0 {
		fmt.Fprintln(p.out, formatLedger(snap.Ledger))
	}
	if caps := formatCaptured(snap.Captured); caps != "" {
		fmt.Fprintln(p.out, caps)
	}
	if snap.IsCheck && !snap.Terminal {
		p.printKey("game.check", nil)
	}
	if !snap.Terminal {
		if snap.CurrentMover == snap.Seat {
			fmt.Fprintln(p.out, "Your move.")
		} else {
			fmt.Fprintln(p.out, "Waiting for "+orName(snap.OpponentName)+"...")
		}
	}
}

func (p *Presenter) OnTerminal(snap session.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := map[string]string{"Winner": "", "Loser": ""}
	switch snap.TerminalReason {
	case session.ReasonCheckmate:
		winner := "White"
		if snap.CurrentMover == 0 {
			// The mover flipped past the mating move, so white to move
			// means black delivered mate.
			winner = "Black"
		}
		data["Winner"] = winner
		p.printKey("game.checkmate", data)
	case session.ReasonStalemate:
		p.printKey("game.stalemate", nil)
	case session.ReasonInsufficientMaterial:
		p.printKey("game.insufficient_material", nil)
	case session.ReasonRepetition:
		p.printKey("game.repetition", nil)
	case session.ReasonMoveRuleDraw:
		p.printKey("game.move_rule", nil)
	case session.ReasonResignation:
		p.printKey("game.resignation", nil)
	case session.ReasonAgreedDraw:
		p.printKey("game.agreed_draw", nil)
	default:
		fmt.Fprintln(p.out, "Game over.")
	}
}

func (p *Presenter) OnOpponentPresenceChange(name string, connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := "session.opponent_left"
	if connected {
		key = "session.opponent_joined"
	}
	p.printKey(key, map[string]string{"Name": orName(name)})
}

func (p *Presenter) OnOfferChange(offeredBySeat int, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !active {
		p.printKey("draw.declined", nil)
		return
	}
	p.printKey("draw.offered_by_opponent", map[string]string{"Name": "Seat " + fmt.Sprint(offeredBySeat)})
}

func (p *Presenter) OnNotice(code, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if code != "" {
		fmt.Fprintln(p.out, p.cat.ForErrorCode(code, message))
		return
	}
	if strings.TrimSpace(message) != "" {
		fmt.Fprintln(p.out, message)
	}
}

func (p *Presenter) printKey(key string, data map[string]string) {
	msg, err := p.cat.Render(key, data)
	if err != nil {
		return
	}
	fmt.Fprintln(p.out, msg)
}

func orName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "opponent"
	}
	return name
}

func formatLedger(ledger []wire.LedgerEntry) string {
	var b strings.Builder
	b.WriteString("Moves:")
	for _, e := range ledger {
		if e.Seat == 0 {
			fmt.Fprintf(&b, " %d.%s", (e.Seq+1)/2, e.SAN)
		} else {
			b.WriteString(" " + e.SAN)
		}
	}
	return b.String()
}

func formatCaptured(c wire.CapturedPieces) string {
	if len(c.FromWhite) == 0 && len(c.FromBlack) == 0 {
		return ""
	}
	return fmt.Sprintf("Captured  white: %s  black: %s",
		strings.Join(c.FromWhite, " "), strings.Join(c.FromBlack, " "))
}

// RenderBoard draws the position's placement field as an ASCII diagram,
// bottom rank first for white and flipped for black.
func RenderBoard(fen string, flipped bool) string {
	placement := strings.SplitN(strings.TrimSpace(fen), " ", 2)[0]
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return ""
	}

	grid := make([][8]byte, 8)
	for i, rank := range ranks {
		file := 0
		for _, ch := range []byte(rank) {
			if ch >= '1' && ch <= '8' {
				for n := 0; n < int(ch-'0') && file < 8; n++ {
					grid[i][file] = '.'
					file++
				}
				continue
			}
			if file < 8 {
				grid[i][file] = ch
				file++
			}
		}
	}

	var b strings.Builder
	for row := 0; row < 8; row++ {
		r := row
		if flipped {
			r = 7 - row
		}
		fmt.Fprintf(&b, "%d ", 8-r)
		for col := 0; col < 8; col++ {
			c := col
			if flipped {
				c = 7 - col
			}
			b.WriteByte(' ')
			b.WriteByte(grid[r][c])
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	files := "abcdefgh"
	for col := 0; col < 8; col++ {
		c := col
		if flipped {
			c = 7 - col
		}
		b.WriteByte(' ')
		b.WriteByte(files[c])
	}
	b.WriteByte('\n')
	return b.String()
}
