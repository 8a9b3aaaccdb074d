package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsignedJWT(t *testing.T, expiresAt time.Time) string {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt), Subject: "42"}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return signed
}

func TestAccessExpiry(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	pair := CredentialPair{AccessToken: unsignedJWT(t, expiresAt), RefreshToken: "r1"}

	exp, err := pair.AccessExpiry()

	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(exp))
	assert.False(t, pair.ExpiresWithin(3*time.Minute))
	assert.True(t, pair.ExpiresWithin(2*time.Hour))
}

func TestAccessExpiryOpaqueToken(t *testing.T) {
	pair := CredentialPair{AccessToken: "not-a-jwt"}

	_, err := pair.AccessExpiry()

	assert.ErrorIs(t, err, gwerrors.ErrTokenParse)
	assert.False(t, pair.ExpiresWithin(time.Hour))
}

func TestCredentialPairRedacted(t *testing.T) {
	pair := CredentialPair{AccessToken: "secret-access", RefreshToken: "secret-refresh"}

	assert.NotContains(t, pair.String(), "secret")
	assert.Equal(t, "CredentialPair<AccessToken: empty, RefreshToken: empty>", CredentialPair{}.String())
}

func TestCredentialPairToken(t *testing.T) {
	pair := CredentialPair{AccessToken: "a2", RefreshToken: "r2"}

	token := pair.Token()

	assert.Equal(t, "Bearer", token.Type())
	assert.Equal(t, "a2", token.AccessToken)
	assert.True(t, CredentialPair{}.Empty())
	assert.False(t, pair.Empty())
}
