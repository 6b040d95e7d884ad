package jwtutil

import (
	"testing"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUtil() *JWTUtil {
	return NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
}

func TestGenerateAndValidateToken(t *testing.T) {
	j := newTestUtil()

	token, err := j.GenerateToken("9b2f1c4e-0000-4000-8000-000000000001", "ana@example.ec", "FREE")
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.ec", claims.Email)
	assert.Equal(t, "FREE", claims.Role)
	assert.Equal(t, PurposeSession, claims.Purpose)
}

func TestValidateToken_Expired(t *testing.T) {
	j := newTestUtil()
	j.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	token, err := j.GenerateToken("u1", "a@b.ec", "FREE")
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongKey(t *testing.T) {
	token, err := newTestUtil().GenerateToken("u1", "a@b.ec", "FREE")
	require.NoError(t, err)

	other := NewJWTUtil(&config.JWTConfig{SigningKey: "other", ExpirationHours: 1})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestResetTokenNotAcceptedAsSession(t *testing.T) {
	j := newTestUtil()

	reset, err := j.GenerateResetToken("u1", "a@b.ec")
	require.NoError(t, err)

	_, err = j.ValidateToken(reset)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	claims, err := j.ValidateResetToken(reset)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}
