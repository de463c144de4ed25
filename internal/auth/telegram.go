package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Credential is the payload produced by the Telegram Login Widget.
// Optional string fields are treated as absent when empty.
type Credential struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// Verifier checks Telegram login payloads against the bot token.
type Verifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier derives the HMAC key from botToken. Payloads whose auth_date is
// older than maxAge are rejected.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	secret := sha256.Sum256([]byte(botToken))
	return &Verifier{
		secret: secret[:],
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Verify returns nil when the payload is fresh and its hash matches.
// Failures wrap ErrInvalidCredential.
func (v *Verifier) Verify(c Credential) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidCredential)
	}
	if c.Hash == "" {
		return fmt.Errorf("%w: hash is required", ErrInvalidCredential)
	}
	if c.AuthDate <= 0 {
		return fmt.Errorf("%w: auth_date is required", ErrInvalidCredential)
	}

	age := v.now().Sub(time.Unix(c.AuthDate, 0))
	if age > v.maxAge {
		return fmt.Errorf("%w: auth_date is %s old", ErrInvalidCredential, age.Truncate(time.Second))
	}

	expected := v.sign(c)
	if !hmac.Equal([]byte(expected), []byte(c.Hash)) {
		return fmt.Errorf("%w: hash mismatch", ErrInvalidCredential)
	}

	return nil
}

func (v *Verifier) sign(c Credential) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(DataCheckString(c)))
	return hex.EncodeToString(mac.Sum(nil))
}

// DataCheckString builds the newline-joined key=value list Telegram signs,
// sorted by key, skipping absent fields and the hash itself.
func DataCheckString(c Credential) string {
	fields := map[string]string{
		"id": strconv.FormatInt(c.ID, 10),
	}
	if c.AuthDate != 0 {
		fields["auth_date"] = strconv.FormatInt(c.AuthDate, 10)
	}
	if c.FirstName != "" {
		fields["first_name"] = c.FirstName
	}
	if c.LastName != "" {
		fields["last_name"] = c.LastName
	}
	if c.Username != "" {
		fields["username"] = c.Username
	}
	if c.PhotoURL != "" {
		fields["photo_url"] = c.PhotoURL
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+fields[key])
	}

	return strings.Join(pairs, "\n")
}
