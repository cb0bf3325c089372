package models

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/town-square/api-go/auth"
)

func TestRefreshTokenSingleSession(t *testing.T) {
	user := &User{}

	// No token has ever been issued.
	assert.Error(t, user.VerifyRefreshToken("anything"))

	require.NoError(t, user.SetRefreshToken("first-token"))
	assert.NoError(t, user.VerifyRefreshToken("first-token"))
	assert.Error(t, user.VerifyRefreshToken("other-token"))

	// Issuing a new token invalidates the previous one.
	require.NoError(t, user.SetRefreshToken("second-token"))
	assert.Error(t, user.VerifyRefreshToken("first-token"))
	assert.NoError(t, user.VerifyRefreshToken("second-token"))
}

func TestRefreshTokenFullLengthJWT(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	// An encoded RS256 token is several hundred bytes, well past bcrypt's
	// 72-byte input limit; storing it must still succeed.
	first, err := auth.Issue(key, 30*24*time.Hour, 42)
	require.NoError(t, err)
	require.Greater(t, len(first.Encoded), 72)

	user := &User{}
	require.NoError(t, user.SetRefreshToken(first.Encoded))
	assert.NoError(t, user.VerifyRefreshToken(first.Encoded))

	// Renewal: the fresh token takes over, the old one stops matching. The
	// claims carry second-resolution timestamps, so a distinct ttl keeps the
	// two encodings from colliding.
	second, err := auth.Issue(key, 31*24*time.Hour, 42)
	require.NoError(t, err)
	require.NoError(t, user.SetRefreshToken(second.Encoded))
	assert.NoError(t, user.VerifyRefreshToken(second.Encoded))
	assert.Error(t, user.VerifyRefreshToken(first.Encoded))
}

func TestValidateGatheringFields(t *testing.T) {
	capacity := 8
	place := "han river park"

	gathering := &Post{PostType: PostGathering, Capacity: &capacity, Place: &place}
	assert.NoError(t, gathering.ValidateGatheringFields())

	daily := &Post{PostType: PostDaily, Capacity: &capacity}
	assert.Error(t, daily.ValidateGatheringFields())

	plain := &Post{PostType: PostQuestion}
	assert.NoError(t, plain.ValidateGatheringFields())
}

func TestParsers(t *testing.T) {
	_, err := ParseSex("male")
	assert.NoError(t, err)
	_, err = ParseSex("other")
	assert.Error(t, err)

	_, err = ParsePostType("gathering")
	assert.NoError(t, err)
	_, err = ParsePostType("story")
	assert.Error(t, err)

	_, err = ParseIDVerificationType("driver_license")
	assert.NoError(t, err)
	_, err = ParseIDVerificationType("passport")
	assert.Error(t, err)
}
