package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey_GeneratesAndPersists(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "token.key")

	key, err := LoadOrGenerateKey(keyPath)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	// A second load returns the same key.
	again, err := LoadOrGenerateKey(keyPath)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_RejectsCorruptKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "token.key")
	require.NoError(t, os.WriteFile(keyPath, []byte("too short"), 0o600))

	_, err := LoadOrGenerateKey(keyPath)
	assert.Error(t, err)
}
