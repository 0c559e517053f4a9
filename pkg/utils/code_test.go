package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.True(t, IsValidCode(code))

	other, err := GenerateCode(8)
	require.NoError(t, err)
	assert.NotEqual(t, code, other, "two codes should practically never collide")
}

func TestIsValidCode(t *testing.T) {
	assert.True(t, IsValidCode("Abc123Xy"))
	assert.False(t, IsValidCode(""))
	assert.False(t, IsValidCode("short"))
	assert.False(t, IsValidCode("toolongcode1"))
	assert.False(t, IsValidCode("abc-123!"))
}
