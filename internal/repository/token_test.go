package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
)

func TestToken_RoundTrip(t *testing.T) {
	id := "0b0a7a52-3d4f-4c5e-9a55-6a1b2c3d4e5f"

	tok := EncodeToken(id)
	assert.NotEqual(t, id, tok)

	got, err := DecodeToken(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestToken_Empty(t *testing.T) {
	assert.Empty(t, EncodeToken(""))

	got, err := DecodeToken("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeToken_Malformed(t *testing.T) {
	_, err := DecodeToken("not base64!")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStoredRate_Present(t *testing.T) {
	assert.False(t, StoredRate{}.Present())
	assert.True(t, StoredRate{Raw: float64(4)}.Present())
}
