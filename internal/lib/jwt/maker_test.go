package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)

	token, err := maker.GenerateToken("acc-123", "+2348123456789")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-123", claims.AccountUID)
	assert.Equal(t, "+2348123456789", claims.PhoneNumber)
}

func TestMaker_ParseExpiredToken(t *testing.T) {
	maker := NewMaker("test-secret", -time.Minute)

	token, err := maker.GenerateToken("acc-123", "+2348123456789")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_ParseWithWrongSecret(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)
	other := NewMaker("other-secret", time.Minute)

	token, err := maker.GenerateToken("acc-123", "+2348123456789")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_ParseGarbage(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)

	_, err := maker.ParseToken("not-a-jwt")
	assert.Error(t, err)
}
