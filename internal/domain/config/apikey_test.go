package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIKeyPrefersConfiguredKey(t *testing.T) {
	key, err := ResolveAPIKey(ServerConfig{APIKey: "fnord", APIKeyFile: "/does/not/matter"}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "fnord", key)
}

func TestResolveAPIKeyFromKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("from-file"), 0o600))

	key, err := ResolveAPIKey(ServerConfig{APIKeyFile: path}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)
}

func TestResolveAPIKeyMissingKeyFileFails(t *testing.T) {
	_, err := ResolveAPIKey(ServerConfig{APIKeyFile: filepath.Join(t.TempDir(), "gone")}, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveAPIKeyUsesExistingDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultKeyFile), []byte("stored"), 0o600))

	key, err := ResolveAPIKey(ServerConfig{}, dir)
	require.NoError(t, err)
	assert.Equal(t, "stored", key)
}

func TestResolveAPIKeyGeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()

	key, err := ResolveAPIKey(ServerConfig{}, dir)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	raw, err := base64.URLEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	onDisk, err := os.ReadFile(filepath.Join(dir, DefaultKeyFile))
	require.NoError(t, err)
	assert.Equal(t, key, string(onDisk))

	again, err := ResolveAPIKey(ServerConfig{}, dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestGenerateKeyIsURLSafe(t *testing.T) {
	key, err := generateKey(bytes.NewReader(bytes.Repeat([]byte{0xfb}, 32)))
	require.NoError(t, err)
	assert.NotContains(t, key, "+")
	assert.NotContains(t, key, "/")
}
