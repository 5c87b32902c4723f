package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidateRoomToken(t *testing.T) {
	SetJWTSecret([]byte("test-secret"))
	t.Cleanup(func() { SetJWTSecret(nil) })

	token, err := SignRoomToken(&RoomTokenClaims{
		RoomID: "r1",
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	claims, err := ValidateRoomToken(token)
	require.NoError(t, err)
	assert.Equal(t, "r1", claims.RoomID)
	assert.Equal(t, "u1", claims.UserID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	SetJWTSecret([]byte("secret-a"))
	t.Cleanup(func() { SetJWTSecret(nil) })

	token, err := SignRoomToken(&RoomTokenClaims{RoomID: "r1"})
	require.NoError(t, err)

	SetJWTSecret([]byte("secret-b"))
	_, err = ValidateRoomToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	SetJWTSecret([]byte("test-secret"))
	t.Cleanup(func() { SetJWTSecret(nil) })

	token, err := SignRoomToken(&RoomTokenClaims{
		RoomID: "r1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	require.NoError(t, err)

	_, err = ValidateRoomToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateRejectsNonHMACAlg(t *testing.T) {
	SetJWTSecret([]byte("test-secret"))
	t.Cleanup(func() { SetJWTSecret(nil) })

	// alg=none tokens must never verify.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &RoomTokenClaims{RoomID: "r1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateRoomToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	SetJWTSecret([]byte("test-secret"))
	t.Cleanup(func() { SetJWTSecret(nil) })

	_, err := ValidateRoomToken("not.a.token")
	assert.Error(t, err)
}

func TestJWTEnabled(t *testing.T) {
	SetJWTSecret(nil)
	assert.False(t, JWTEnabled())
	SetJWTSecret([]byte("x"))
	t.Cleanup(func() { SetJWTSecret(nil) })
	assert.True(t, JWTEnabled())
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	for _, header := range []string{"", "abc123", "Bearer", "Bearer ", "Basic abc123"} {
		_, err := ExtractTokenFromHeader(header)
		assert.Error(t, err, "header %q", header)
	}
}
