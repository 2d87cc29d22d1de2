package wire

import (
	"fmt"
	"strings"
)

// Move is a coordinate move: four characters plus an optional lowercase
// promotion letter, e.g. "e2e4" or "e7e8q".
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// ParseMove validates and splits the wire form of a move.
func ParseMove(raw string) (Move, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move %q: want 4 or 5 characters", raw)
	}
	from, to := s[:2], s[2:4]
	if !validSquare(from) || !validSquare(to) {
		return Move{}, fmt.Errorf("invalid move %q: bad square", raw)
	}
	mv := Move{From: from, To: to}
	if len(s) == 5 {
		p := s[4:]
		if !strings.Contains("qrbn", p) {
			return Move{}, fmt.Errorf("invalid move %q: bad promotion piece %q", raw, p)
		}
		mv.Promotion = p
	}
	return mv, nil
}

// UCI returns the wire form of the move.
func (m Move) UCI() string {
	return m.From + m.To + m.Promotion
}

// WithPromotion returns a copy of the move carrying the chosen piece.
func (m Move) WithPromotion(piece string) Move {
	m.Promotion = strings.ToLower(strings.TrimSpace(piece))
	return m
}

func validSquare(sq string) bool {
	if len(sq) != 2 {
		return false
	}
	return sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}
