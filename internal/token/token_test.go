package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewSigner("super-secret", 15*time.Minute)

	raw, exp, err := s.IssueAccessToken("a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := s.VerifyAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.WithinDuration(t, exp, claims.ExpiresAt, time.Second)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	s := NewSigner("secret", -1*time.Second)

	raw, _, err := s.IssueAccessToken("a@x.com")
	require.NoError(t, err)

	_, err = s.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewSigner("right-secret", time.Hour)
	verifier := NewSigner("wrong-secret", time.Hour)

	raw, _, err := issuer.IssueAccessToken("a@x.com")
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	s := NewSigner("secret", time.Hour)
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := s.VerifyAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}

func TestVerify_RejectsForeignSigningMethod(t *testing.T) {
	t.Parallel()

	secret := "shared-secret"
	s := NewSigner(secret, time.Hour)

	// same secret, different HMAC variant: must still be rejected
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := foreign.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = s.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingSubject(t *testing.T) {
	t.Parallel()

	secret := "shared-secret"
	s := NewSigner(secret, time.Hour)

	anon := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := anon.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = s.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewRefreshSecret(t *testing.T) {
	t.Parallel()

	a, err := NewRefreshSecret()
	require.NoError(t, err)
	b, err := NewRefreshSecret()
	require.NoError(t, err)

	assert.Len(t, a, refreshSecretBytes*2) // hex doubles the length
	assert.NotEqual(t, a, b)
}
