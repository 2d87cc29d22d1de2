package wire

// Protocol error codes surfaced via ProtocolError.Code.
const (
	CodeNotInSession       = "NOT_IN_SESSION"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodeIllegalMove        = "ILLEGAL_MOVE"
	CodeKingInCheck        = "KING_IN_CHECK"
	CodePromotionRequired  = "PROMOTION_REQUIRED"
	CodeOpponentNotPresent = "OPPONENT_NOT_PRESENT"
)

// DomainError carries a protocol error code alongside a readable message.
// SESSION_NOT_FOUND is the only code that is terminal for the client.
type DomainError struct {
	Code    string
	Message string
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "session protocol error"
}

// Terminal reports whether the error ends the client's session.
func (e DomainError) Terminal() bool {
	return e.Code == CodeSessionNotFound
}
