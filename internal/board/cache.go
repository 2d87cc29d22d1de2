// Package board holds the authoritative board position for a session plus the
// single transient local preview shown between submission and confirmation.
package board

import "github.com/thevivotran/chessduel/pkg/wire"

// PositionCache owns exactly one authoritative position string and at most one
// non-authoritative preview. The authoritative value is replaced wholesale,
// never diffed; the preview is always subordinate and is dropped whenever a
// new authoritative value arrives.
type PositionCache struct {
	authoritative string
	preview       string
	hasPreview    bool
}

func NewPositionCache() *PositionCache {
	return &PositionCache{authoritative: wire.StartFEN}
}

// Authoritative returns the last server-confirmed position.
func (c *PositionCache) Authoritative() string { return c.authoritative }

// Effective returns the position the presentation layer should show: the
// preview while one is staged, the authoritative position otherwise.
func (c *PositionCache) Effective() string {
	if c.hasPreview {
		return c.preview
	}
	return c.authoritative
}

// HasPreview reports whether a speculative position is staged.
func (c *PositionCache) HasPreview() bool { return c.hasPreview }

// SetAuthoritative replaces the authoritative position and discards any
// preview. Replacement is idempotent: applying the same position twice is a
// no-op in effect.
func (c *PositionCache) SetAuthoritative(fen string) {
	c.authoritative = fen
	c.preview = ""
	c.hasPreview = false
}

// StagePreview records the locally predicted position for a submitted move.
func (c *PositionCache) StagePreview(fen string) {
	c.preview = fen
	c.hasPreview = true
}

// Rollback discards the preview, returning to the last authoritative position.
func (c *PositionCache) Rollback() {
	c.preview = ""
	c.hasPreview = false
}

// Reset returns the cache to the initial position with no preview.
func (c *PositionCache) Reset(fen string) {
	if fen == "" {
		fen = wire.StartFEN
	}
	c.SetAuthoritative(fen)
}

// CapturedSet mirrors the server's capture lists. It is replaced wholesale on
// every authoritative update; a client never predicts captures locally.
type CapturedSet struct {
	fromWhite []string
	fromBlack []string
}

func (s *CapturedSet) Replace(pieces wire.CapturedPieces) {
	s.fromWhite = append([]string(nil), pieces.FromWhite...)
	s.fromBlack = append([]string(nil), pieces.FromBlack...)
}

func (s *CapturedSet) Clear() {
	s.fromWhite = nil
	s.fromBlack = nil
}

// Snapshot returns copies safe to hand to presentation collaborators.
func (s *CapturedSet) Snapshot() wire.CapturedPieces {
	return wire.CapturedPieces{
		FromWhite: append([]string(nil), s.fromWhite...),
		FromBlack: append([]string(nil), s.fromBlack...),
	}
}
