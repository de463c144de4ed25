package domain

import "time"

// RefreshToken is the server-side record backing an issued refresh token.
// Only the SHA-256 hex digest of the raw token is stored.
type RefreshToken struct {
	TokenHash string    `bson:"token_hash" json:"tokenHash"`
	UserID    string    `bson:"user_id" json:"userId"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Expired reports whether the record is past its absolute expiry at now.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
