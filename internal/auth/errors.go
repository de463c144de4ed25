// Package auth implements Telegram login verification, JWT issuance and
// refresh-token rotation.
package auth

import "errors"

// Authentication failures. Callers match them with errors.Is.
var (
	// ErrInvalidCredential marks a malformed, stale or unauthentic Telegram payload.
	ErrInvalidCredential = errors.New("invalid telegram credential")
	// ErrMissingToken is returned when no token was presented.
	ErrMissingToken = errors.New("token is missing")
	// ErrInvalidToken covers malformed, expired, mis-signed, unknown and
	// already-rotated tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the stored refresh record is past its expiry.
	ErrTokenExpired = errors.New("refresh token expired")
	// ErrUserMismatch is returned when the token's user differs from the record owner.
	ErrUserMismatch = errors.New("token user mismatch")
	// ErrUserNotFound is returned when the token's user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)
