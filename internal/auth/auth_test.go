package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	require.NoError(t, CheckPassword(hash, "s3cret"))
	require.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
	require.ErrorIs(t, CheckPassword("not-a-hash", "s3cret"), ErrPasswordMismatch)
}

func TestNewTokens_EmptySecret(t *testing.T) {
	_, err := NewTokens("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens, err := NewTokens("test-secret", 0)
	require.NoError(t, err)

	signed, expires, err := tokens.Issue("admin", "Administrador", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), expires, time.Minute)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Usuario)
	assert.Equal(t, "Administrador", claims.Nombre)
	assert.Equal(t, "admin", claims.Tipo)
	assert.NotEmpty(t, claims.ID)

	other, _, err := tokens.Issue("admin", "Administrador", "admin")
	require.NoError(t, err)

	otherClaims, err := tokens.Parse(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestTokens_Rejects(t *testing.T) {
	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	signed, _, err := tokens.Issue("promotor1", "", "promotor")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokens("another-secret", time.Hour)
		require.NoError(t, err)

		_, err = other.Parse(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := *tokens
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := later.Parse(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Usuario: "x"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.Parse(unsigned)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
