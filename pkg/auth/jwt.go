// Package auth issues and verifies the session token a client presents in
// its handshake ConnectMsg, binding a connection to the room and entity it
// is allowed to control (spec.md §C connect/handshake).
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL bounds how long a handshake token remains valid — long enough
// to cover a reconnect after a brief network drop, short enough that a
// leaked token isn't useful for long.
const SessionTTL = 10 * time.Minute

const tokenIssuer = "predictsync"

// Claims identifies which room and entity a session token authorizes.
type Claims struct {
	RoomID   uint64 `json:"room_id"`
	EntityID uint64 `json:"entity_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a single shared secret,
// configured per-deployment (config.Config.JWTSecret).
type Issuer struct {
	secret []byte
}

// NewIssuer constructs an Issuer bound to secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// GenerateSessionToken issues a token authorizing the bearer to control
// entityID within roomID until SessionTTL elapses.
func (i *Issuer) GenerateSessionToken(roomID, entityID uint64) (string, error) {
	now := time.Now()
	claims := Claims{
		RoomID:   roomID,
		EntityID: entityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("entity-%d", entityID),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// VerifySessionToken parses and validates tokenString, returning the room
// and entity it authorizes.
func (i *Issuer) VerifySessionToken(tokenString string) (roomID, entityID uint64, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("token parsing failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, 0, fmt.Errorf("invalid token")
	}
	return claims.RoomID, claims.EntityID, nil
}
