package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, secret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ParseJWT(token, secret)
	require.NoError(t, err)
	require.Equal(t, 42, userID)
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(42, secret)
	require.NoError(t, err)

	_, err = ParseJWT(token, "other-secret")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWTGarbage(t *testing.T) {
	_, err := ParseJWT("not.a.token", secret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractToken(t *testing.T) {
	require.Equal(t, "abc", ExtractToken("Bearer abc"))
	require.Equal(t, "abc", ExtractToken("abc"))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery staple", hash)

	require.True(t, CheckPassword(hash, "correct horse battery staple"))
	require.False(t, CheckPassword(hash, "wrong password"))
}
