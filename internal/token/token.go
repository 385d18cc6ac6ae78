// Package token issues and verifies the two credential kinds used by the
// session flow: short-lived self-verifying HS256 access tokens, and opaque
// random refresh secrets whose validity is established only by their
// presence in the refresh-token store.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, malformed structure, or expiry.  Callers cannot distinguish
// between them.
var ErrInvalidToken = errors.New("invalid or expired token")

// refreshSecretBytes is the entropy of a refresh secret before hex
// encoding; 48 bytes -> 96 hex chars.
const refreshSecretBytes = 48

// Signer binds the server-wide HMAC secret to the access-token lifetime.
type Signer struct {
	secret    []byte
	accessTTL time.Duration
}

// NewSigner builds a Signer from the shared secret and the access-token TTL.
func NewSigner(secret string, accessTTL time.Duration) *Signer {
	return &Signer{secret: []byte(secret), accessTTL: accessTTL}
}

// AccessTTL exposes the configured access-token lifetime, used by the
// session service to set the cookie Max-Age.
func (s *Signer) AccessTTL() time.Duration { return s.accessTTL }

// IssueAccessToken signs an HS256 JWT whose subject is the user's email.
// The token is stateless: nothing is persisted and verification needs no
// store lookup.
func (s *Signer) IssueAccessToken(email string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.accessTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// AccessClaims is the verified projection of an access token.  It is only
// ever returned whole; a failed verification yields no partial data.
type AccessClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// VerifyAccessToken checks signature integrity first and expiry second,
// failing closed with ErrInvalidToken on any defect.  Only HS256 is
// accepted; a token signed with another method is invalid regardless of
// its payload.
func (s *Signer) VerifyAccessToken(raw string) (AccessClaims, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return AccessClaims{}, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.Subject == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	return AccessClaims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// NewRefreshSecret returns a cryptographically random opaque string.  It is
// not signed and carries no claims; the refresh-token store is the sole
// authority on its validity.
func NewRefreshSecret() (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
