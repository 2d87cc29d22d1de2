package wire

// StartFEN is the six-field position string of the initial board.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// CapturedPieces holds the pieces taken from each side, in capture order,
// as lowercase piece letters. Replaced wholesale on every authoritative update.
type CapturedPieces struct {
	FromWhite []string `json:"from_white"`
	FromBlack []string `json:"from_black"`
}

// LedgerEntry is one confirmed move in the session's ordered history.
type LedgerEntry struct {
	Seq  int    `json:"seq"`
	SAN  string `json:"san"`
	UCI  string `json:"uci"`
	Seat int    `json:"seat"`
}

// Client → server payloads.

type CreateSession struct {
	DisplayName string `json:"display_name"`
}

type JoinSession struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
}

type SubmitMove struct {
	Move string `json:"move"` // 4-5 char coordinate notation, e.g. e2e4, e7e8q
}

// Server → client payloads.

type SessionCreated struct {
	SessionID   string `json:"session_id"`
	SeatIndex   int    `json:"seat_index"`
	Color       string `json:"color"`
	DisplayName string `json:"display_name"`
}

type SessionJoined struct {
	SessionID    string `json:"session_id"`
	SeatIndex    int    `json:"seat_index"`
	Color        string `json:"color"`
	OpponentName string `json:"opponent_name"`
}

type OpponentJoined struct {
	OpponentName string `json:"opponent_name"`
	Position     string `json:"position"`
}

// MoveConfirmed is the authoritative result of one applied move. Position,
// mover and captures always replace prior state as a unit.
type MoveConfirmed struct {
	Move                   string         `json:"move"`
	SAN                    string         `json:"san"`
	Position               string         `json:"position"`
	CurrentMover           int            `json:"current_mover"`
	IsCapture              bool           `json:"is_capture"`
	IsCheck                bool           `json:"is_check"`
	IsCheckmate            bool           `json:"is_checkmate"`
	IsDraw                 bool           `json:"is_draw"`
	IsStalemate            bool           `json:"is_stalemate"`
	IsInsufficientMaterial bool           `json:"is_insufficient_material"`
	IsRepetition           bool           `json:"is_repetition"`
	IsFiftyMoves           bool           `json:"is_fifty_moves"`
	Captured               CapturedPieces `json:"captured_pieces"`
}

type StateSnapshot struct {
	Position     string         `json:"position"`
	CurrentMover int            `json:"current_mover"`
	SeatIndex    int            `json:"seat_index"`
	DisplayNames []string       `json:"display_names"`
	MoveLedger   []LedgerEntry  `json:"move_ledger"`
	Captured     CapturedPieces `json:"captured_pieces"`
	Terminal     bool           `json:"terminal"`
	Reason       string         `json:"reason,omitempty"` // set when terminal
}

type SessionReset struct {
	Position string `json:"position"`
	Message  string `json:"message"`
}

type OpponentLeft struct {
	Message string `json:"message"`
}

type DrawOffered struct {
	BySeat int `json:"by_seat"`
}

type SessionEnded struct {
	Result  string `json:"result"` // "draw" or "resignation"
	Winner  string `json:"winner,omitempty"`
	Loser   string `json:"loser,omitempty"`
	Message string `json:"message"`
}

type ProtocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
