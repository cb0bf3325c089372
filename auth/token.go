// Package auth encodes and decodes the signed session tokens. Tokens are
// RS256 JWTs carrying issuer, issue time, expiry and the user id as subject.
package auth

import (
	"crypto/rsa"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/town-square/api-go/apperr"
)

const Issuer = "https://town-square.app/api"

type Token struct {
	Claims  jwt.StandardClaims
	Encoded string
	UserID  uint
}

// ExpiresIn returns the token lifetime in seconds as encoded in the claims.
func (t *Token) ExpiresIn() int64 {
	return t.Claims.ExpiresAt - t.Claims.IssuedAt
}

// Issue signs a new token for the user with the given lifetime.
func Issue(privateKey *rsa.PrivateKey, ttl time.Duration, userID uint) (*Token, error) {
	now := time.Now()
	claims := jwt.StandardClaims{
		Issuer:    Issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Subject:   strconv.FormatUint(uint64(userID), 10),
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return nil, apperr.Vendor(err)
	}

	return &Token{Claims: claims, Encoded: encoded, UserID: userID}, nil
}

// Decode validates an encoded token and extracts the user id. The caller maps
// a missing credential to ErrTokenNotExists before calling; an empty string
// here is ErrInvalidToken. A token whose expiry is at or before the current
// instant fails with ErrTokenExpired; every other validation failure is the
// generic ErrToken.
func Decode(encoded string, publicKey *rsa.PublicKey) (*Token, error) {
	if encoded == "" {
		return nil, apperr.ErrInvalidToken
	}

	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(encoded, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, apperr.ErrToken
		}
		return publicKey, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrToken
	}
	if !parsed.Valid {
		return nil, apperr.ErrToken
	}

	// The library accepts exp == now; the expiry boundary here is exclusive.
	if claims.ExpiresAt <= time.Now().Unix() {
		return nil, apperr.ErrTokenExpired
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, apperr.ErrToken
	}

	return &Token{Claims: *claims, Encoded: encoded, UserID: uint(userID)}, nil
}
