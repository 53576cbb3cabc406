package nostr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndSaveKeysPersistsToEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")

	keys, err := GenerateAndSaveKeys(envPath)
	require.NoError(t, err)
	require.NotEmpty(t, keys.PrivateKey)
	assert.True(t, strings.HasPrefix(keys.Nsec, "nsec1"))
	assert.True(t, strings.HasPrefix(keys.Npub, "npub1"))

	data, err := os.ReadFile(envPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BUYER_AGENT_KEY="+keys.Nsec)

	// The persisted key must round-trip to the same identity.
	parsed, err := ParseKeys(keys.Nsec)
	require.NoError(t, err)
	assert.Equal(t, keys.PublicKey, parsed.PublicKey)
}

func TestGenerateAndSaveKeysAppends(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DB_NAME=marketplace\n"), 0600))

	_, err := GenerateAndSaveKeys(envPath)
	require.NoError(t, err)

	data, err := os.ReadFile(envPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DB_NAME=marketplace\n")
	assert.Contains(t, string(data), "BUYER_AGENT_KEY=nsec1")
}

func TestParseKeysRejectsNonPrivateKeys(t *testing.T) {
	keys, err := GenerateAndSaveKeys(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	_, err = ParseKeys(keys.Npub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want nsec")

	_, err = ParseKeys("not a key")
	require.Error(t, err)
}

func TestLoadOrGenerateKeys(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")

	generated, err := LoadOrGenerateKeys("", envPath)
	require.NoError(t, err)

	loaded, err := LoadOrGenerateKeys(generated.Nsec, envPath)
	require.NoError(t, err)
	assert.Equal(t, generated.PrivateKey, loaded.PrivateKey)
}
