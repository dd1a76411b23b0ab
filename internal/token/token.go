// Package token signs and verifies the access tokens that carry a session
// reference. A token binds the id of the backing authentication record
// (authId) to the owning user (userId); verification is pure computation
// and performs no I/O.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures are collapsed into two distinguishable conditions:
// a token whose signed expiry has elapsed, and everything else (bad
// signature, malformed payload, missing authId claim). Callers map the
// former to TOKEN_EXPIRED and the latter to INVALID_TOKEN.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("invalid token")
)

// Claims is the signed payload of an access token: the standard
// registered claims plus the session reference.
type Claims struct {
	jwt.RegisteredClaims
	AuthID uint64 `json:"authId"`
	UserID uint64 `json:"userId"`
}

// Sign builds an HS256 token binding authID and userID, with issued-at set
// to now and expiry now+validity. The validity is provisioned to coincide
// with the authentication record's own expiry, but the two are independent
// fields and the gate checks both.
func Sign(secret []byte, authID, userID uint64, validity time.Duration) (string, error) {
	now := time.Now().UTC()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		AuthID: authID,
		UserID: userID,
	})
	return t.SignedString(secret)
}

// Verify parses and validates a token string, returning its claims.
// Expired tokens fail with ErrExpired; any other failure (wrong signing
// method, bad signature, malformed string, missing authId) fails with
// ErrInvalid.
func Verify(secret []byte, raw string) (Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}
	if !tok.Valid || claims.AuthID == 0 {
		return Claims{}, ErrInvalid
	}
	return *claims, nil
}
