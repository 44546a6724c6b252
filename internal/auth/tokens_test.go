package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerlog/internal/auth"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := auth.NewIssuer(secret, 30*24*time.Hour, "pokerlog").
		WithClock(func() time.Time { return issuedAt })

	token, expiresAt, err := issuer.Issue(42, "player@example.com")
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(30*24*time.Hour), expiresAt)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "player@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)

	t.Run("still valid just before expiry", func(t *testing.T) {
		later := issuer.WithClock(func() time.Time { return expiresAt.Add(-time.Minute) })
		_, err := later.Verify(token)
		assert.NoError(t, err)
	})

	t.Run("expired after thirty days", func(t *testing.T) {
		later := issuer.WithClock(func() time.Time { return expiresAt.Add(time.Minute) })
		_, err := later.Verify(token)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})
}

func TestVerifyRejects(t *testing.T) {
	issuer := auth.NewIssuer(secret, time.Hour, "pokerlog")
	token, _, err := issuer.Issue(7, "a@example.com")
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		_, err := issuer.Verify("")
		assert.ErrorIs(t, err, auth.ErrTokenMissing)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("other secret", func(t *testing.T) {
		other := auth.NewIssuer("another-secret-another-secret-xx", time.Hour, "pokerlog")
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := auth.NewIssuer(secret, time.Hour, "someone-else")
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("unsigned token", func(t *testing.T) {
		claims := auth.Claims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "pokerlog",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Verify(unsigned)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("token without user", func(t *testing.T) {
		anonymous, _, err := issuer.Issue(0, "")
		require.NoError(t, err)
		_, err = issuer.Verify(anonymous)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})
}
