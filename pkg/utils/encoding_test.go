package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}

	encoded, err := Encode(payload{Name: "session", Size: 42})
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := Decode[payload](encoded)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "session", Size: 42}, decoded)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode[string]("")
	require.Error(t, err)

	_, err = Decode[string]("not base64!!!")
	require.Error(t, err)
}
