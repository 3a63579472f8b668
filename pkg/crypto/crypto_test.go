package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer("MySecretEncryptionKey!")
	require.NoError(t, err)

	sealed, err := s.Seal("fcm-device-token")
	require.NoError(t, err)
	assert.NotEqual(t, "fcm-device-token", sealed)

	again, err := s.Seal("fcm-device-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "fcm-device-token", plain)
}

func TestSealerEmptyAndInvalid(t *testing.T) {
	s, err := NewSealer("k")
	require.NoError(t, err)

	sealed, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := s.Open("")
	require.NoError(t, err)
	assert.Empty(t, plain)

	_, err = s.Open("AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	_, err = s.Open("not base64!!")
	assert.Error(t, err)

	other, err := NewSealer("another key")
	require.NoError(t, err)
	sealed, err = s.Seal("token")
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Secr3t!pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Secr3t!pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
