package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, sub string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	token := signToken(t, "s3cret", "u1", time.Now().Add(time.Hour))

	userID, err := VerifyToken("s3cret", token)
	require.NoError(t, err)
	require.Equal(t, "u1", userID)
}

func TestVerifyTokenRejectsBadSecret(t *testing.T) {
	token := signToken(t, "s3cret", "u1", time.Now().Add(time.Hour))

	_, err := VerifyToken("other", token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	token := signToken(t, "s3cret", "u1", time.Now().Add(-time.Hour))

	_, err := VerifyToken("s3cret", token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsEmpty(t *testing.T) {
	_, err := VerifyToken("s3cret", "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	req := require.New(t)

	token, ok := BearerToken("Bearer abc")
	req.True(ok)
	req.Equal("abc", token)

	_, ok = BearerToken("abc")
	req.False(ok)
	_, ok = BearerToken("")
	req.False(ok)
}
