package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/town-square/api-go/apperr"
)

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestToken_RoundTrip(t *testing.T) {
	key := newTestKey(t)

	issued, err := Issue(key, time.Hour, 42)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Encoded)
	assert.Equal(t, Issuer, issued.Claims.Issuer)
	assert.Equal(t, int64(3600), issued.ExpiresIn())

	decoded, err := Decode(issued.Encoded, &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, uint(42), decoded.UserID)
	assert.Equal(t, issued.Claims.Subject, decoded.Claims.Subject)
}

func TestToken_DecodeEmpty(t *testing.T) {
	key := newTestKey(t)

	_, err := Decode("", &key.PublicKey)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestToken_DecodeMalformed(t *testing.T) {
	key := newTestKey(t)

	_, err := Decode("not-a-jwt", &key.PublicKey)
	assert.ErrorIs(t, err, apperr.ErrToken)
}

func TestToken_DecodeWrongKey(t *testing.T) {
	key := newTestKey(t)
	other := newTestKey(t)

	issued, err := Issue(key, time.Hour, 7)
	require.NoError(t, err)

	_, err = Decode(issued.Encoded, &other.PublicKey)
	assert.ErrorIs(t, err, apperr.ErrToken)
}

func TestToken_DecodeExpired(t *testing.T) {
	key := newTestKey(t)

	issued, err := Issue(key, -time.Minute, 7)
	require.NoError(t, err)

	_, err = Decode(issued.Encoded, &key.PublicKey)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestToken_ExpiryBoundary(t *testing.T) {
	key := newTestKey(t)

	// exp == now must already be rejected as expired.
	now := time.Now()
	claims := jwt.StandardClaims{
		Issuer:    Issuer,
		IssuedAt:  now.Add(-time.Hour).Unix(),
		ExpiresAt: now.Unix(),
		Subject:   strconv.FormatUint(7, 10),
	}
	encoded, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	_, err = Decode(encoded, &key.PublicKey)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestToken_RejectsNonRSAAlgorithm(t *testing.T) {
	key := newTestKey(t)

	claims := jwt.StandardClaims{
		Issuer:    Issuer,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		Subject:   "7",
	}
	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = Decode(encoded, &key.PublicKey)
	assert.ErrorIs(t, err, apperr.ErrToken)
}
