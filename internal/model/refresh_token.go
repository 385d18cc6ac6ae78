package model

import "time"

// RefreshToken mirrors the 'refresh_tokens' table.  Token carries a unique
// index and UserID a secondary index.  A row is single-use: a successful
// refresh deletes it before a replacement is issued.
type RefreshToken struct {
	ID        uint64
	Token     string
	UserID    uint64
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry lies in the past relative to now.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
