package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

// RoomTokenClaims grants a user access to one room.
type RoomTokenClaims struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// SetJWTSecret overrides the secret loaded from the environment.
func SetJWTSecret(secret []byte) { jwtSecret = secret }

// JWTEnabled reports whether a signing secret is configured.
func JWTEnabled() bool { return len(jwtSecret) > 0 }

// ValidateRoomToken parses and verifies an HS256 room token.
func ValidateRoomToken(tokenStr string) (*RoomTokenClaims, error) {
	claims := &RoomTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SignRoomToken issues a room token for the configured secret.
func SignRoomToken(claims *RoomTokenClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ExtractTokenFromHeader pulls the bearer token out of an Authorization header.
func ExtractTokenFromHeader(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
