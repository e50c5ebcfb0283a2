package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewMaker("test_secret", time.Hour)

	token, err := maker.GenerateToken("admin", 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, int64(42), claims.AdminID)
	assert.Equal(t, "admin", claims.Subject)
}

func TestMaker_ParseToken_WrongSecret(t *testing.T) {
	maker := NewMaker("test_secret", time.Hour)
	other := NewMaker("another_secret", time.Hour)

	token, err := maker.GenerateToken("admin", 42)
	require.NoError(t, err)

	claims, err := other.ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestMaker_ParseToken_Expired(t *testing.T) {
	maker := NewMaker("test_secret", -time.Minute)

	token, err := maker.GenerateToken("admin", 42)
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestMaker_ParseToken_Garbage(t *testing.T) {
	maker := NewMaker("test_secret", time.Hour)

	claims, err := maker.ParseToken("not.a.token")
	assert.Error(t, err)
	assert.Nil(t, claims)
}
