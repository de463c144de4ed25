package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-bot-token"

func fixedVerifier(now time.Time, maxAge time.Duration) *Verifier {
	v := NewVerifier(testBotToken, maxAge)
	v.now = func() time.Time { return now }
	return v
}

// referenceHash signs check with the documented Telegram recipe, independently
// of Verifier.sign.
func referenceHash(check string) string {
	secret := sha256.Sum256([]byte(testBotToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(check))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestDataCheckStringSortsAndSkipsAbsentFields(t *testing.T) {
	cred := Credential{
		ID:        42,
		Username:  "ada",
		FirstName: "Ada",
		AuthDate:  1700000000,
		Hash:      "ignored",
	}

	assert.Equal(t, "auth_date=1700000000\nfirst_name=Ada\nid=42\nusername=ada", DataCheckString(cred))

	full := cred
	full.LastName = "Lovelace"
	full.PhotoURL = "https://t.me/i/ada.jpg"
	assert.Equal(t,
		"auth_date=1700000000\nfirst_name=Ada\nid=42\nlast_name=Lovelace\nphoto_url=https://t.me/i/ada.jpg\nusername=ada",
		DataCheckString(full))
}

func TestVerifyAcceptsValidPayload(t *testing.T) {
	now := time.Unix(1700000030, 0)
	v := fixedVerifier(now, 60*time.Second)

	cred := Credential{ID: 42, FirstName: "Ada", Username: "ada", AuthDate: 1700000000}
	cred.Hash = referenceHash(DataCheckString(cred))

	require.NoError(t, v.Verify(cred))
	assert.NoError(t, v.Verify(cred), "verification must be deterministic")
}

func TestVerifyRejectsSingleCharacterFlip(t *testing.T) {
	now := time.Unix(1700000030, 0)
	v := fixedVerifier(now, 60*time.Second)

	cred := Credential{ID: 42, FirstName: "Ada", AuthDate: 1700000000}
	good := referenceHash(DataCheckString(cred))

	flipped := []byte(good)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	cred.Hash = string(flipped)

	err := v.Verify(cred)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestVerifyRejectsUppercaseHash(t *testing.T) {
	now := time.Unix(1700000030, 0)
	v := fixedVerifier(now, 60*time.Second)

	cred := Credential{ID: 42, AuthDate: 1700000000}
	cred.Hash = strings.ToUpper(referenceHash(DataCheckString(cred)))

	assert.ErrorIs(t, v.Verify(cred), ErrInvalidCredential)
}

func TestVerifyRejectsStaleAuthDateEvenWithValidHash(t *testing.T) {
	now := time.Unix(1700000061, 0)
	v := fixedVerifier(now, 60*time.Second)

	cred := Credential{ID: 42, FirstName: "Ada", AuthDate: 1700000000}
	cred.Hash = referenceHash(DataCheckString(cred))

	err := v.Verify(cred)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Contains(t, err.Error(), "auth_date")
}

func TestVerifyHonoursConfiguredWindow(t *testing.T) {
	now := time.Unix(1700000000, 0).Add(23 * time.Hour)
	v := fixedVerifier(now, 24*time.Hour)

	cred := Credential{ID: 42, AuthDate: 1700000000}
	cred.Hash = referenceHash(DataCheckString(cred))

	assert.NoError(t, v.Verify(cred))
}

func TestVerifyRejectsMissingFields(t *testing.T) {
	v := fixedVerifier(time.Unix(1700000000, 0), time.Minute)

	tests := []struct {
		name string
		cred Credential
	}{
		{"missing hash", Credential{ID: 42, AuthDate: 1700000000}},
		{"zero id", Credential{AuthDate: 1700000000, Hash: "abc"}},
		{"missing auth_date", Credential{ID: 42, Hash: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, v.Verify(tt.cred), ErrInvalidCredential)
		})
	}
}

func TestVerifyRejectsTamperedField(t *testing.T) {
	v := fixedVerifier(time.Unix(1700000010, 0), time.Minute)

	cred := Credential{ID: 42, Username: "ada", AuthDate: 1700000000}
	cred.Hash = referenceHash(DataCheckString(cred))
	cred.Username = "mallory"

	assert.ErrorIs(t, v.Verify(cred), ErrInvalidCredential)
}
