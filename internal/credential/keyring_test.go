package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T) keyring.Keyring {
	t.Helper()

	ring := keyring.NewArrayKeyring(nil)
	prev := openKeyring
	openKeyring = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { openKeyring = prev })
	return ring
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)
	t.Setenv(EnvAIAPIKey, "")

	require.NoError(t, Set(KeyAIAPIKey, "sk-123"))

	got, err := Get(KeyAIAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-123", got)

	require.NoError(t, Delete(KeyAIAPIKey))
	_, err = Get(KeyAIAPIKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnvironmentWins(t *testing.T) {
	useArrayKeyring(t)
	require.NoError(t, Set(KeySMTPPassword, "from-keyring"))
	t.Setenv(EnvSMTPPassword, "from-env")

	got, err := Get(KeySMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestLookupMissingIsEmpty(t *testing.T) {
	useArrayKeyring(t)
	t.Setenv(EnvAIAPIKey, "")

	got, err := Lookup(KeyAIAPIKey)
	require.NoError(t, err)
	assert.Empty(t, got)
}
