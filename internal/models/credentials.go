package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/notesphere/notes-gateway/internal/gwerrors"
	"golang.org/x/oauth2"
)

// CredentialPair is the access and refresh token issued by the notes backend
type CredentialPair struct {
	AccessToken  string `json:"access_token" yaml:"access_token"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
}

// TokenResponse is the body returned by the login, register, social and refresh endpoints
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

func (t TokenResponse) Pair() CredentialPair {
	return CredentialPair{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

// Empty is true when no access token is present.
func (c CredentialPair) Empty() bool {
	return c.AccessToken == ""
}

// Token converts the pair so that the bearer header can be set with oauth2.
func (c CredentialPair) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
}

// AccessExpiry reads the exp claim of the access token without verifying the signature.
// The value is only advisory, the backend remains the authority on expiry.
func (c CredentialPair) AccessExpiry() (time.Time, error) {
	if c.AccessToken == "" {
		return time.Time{}, fmt.Errorf("the access token is empty")
	}
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, &claims)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", gwerrors.ErrTokenParse, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("the access token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// ExpiresWithin reports whether the access token expires in less than margin.
// Tokens whose expiry cannot be read are reported as not expiring.
func (c CredentialPair) ExpiresWithin(margin time.Duration) bool {
	expiresAt, err := c.AccessExpiry()
	if err != nil {
		return false
	}
	return time.Now().Add(margin).After(expiresAt)
}

// String implements the Stringer interface for printing the pair in logs
func (c CredentialPair) String() string {
	return fmt.Sprintf(
		"CredentialPair<AccessToken: %s, RefreshToken: %s>",
		redact(c.AccessToken),
		redact(c.RefreshToken),
	)
}

func redact(val string) string {
	if val == "" {
		return "empty"
	}
	return fmt.Sprintf("redacted-%d-chars", len(val))
}
