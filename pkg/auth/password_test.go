package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/decorhub/decorhub/pkg/auth"
)

func TestHashAndCheck(t *testing.T) {
	auth.Cost = bcrypt.MinCost

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	ok, err := auth.CheckPassword(hash, "correct-horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckMalformedHash(t *testing.T) {
	_, err := auth.CheckPassword("not-a-hash", "x")
	assert.Error(t, err)
}
