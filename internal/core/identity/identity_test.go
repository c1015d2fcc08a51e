package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)
	require.NoError(t, id.NodeID().Validate())

	// 两次生成的身份不同
	id2, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, id.NodeID(), id2.NodeID())
}

func TestSignVerifiable(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	msg := []byte("handshake payload")
	sig := id.Sign(msg)
	assert.Len(t, sig, 64)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity.key")

	id, err := Generate()
	require.NoError(t, err)
	require.NoError(t, id.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, id.NodeID(), loaded.NodeID())
	assert.Equal(t, id.PublicKey(), loaded.PublicKey())
}

func TestLoadRejectsMalformedKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.key")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidKeyMaterial)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.key"))
	assert.Error(t, err)
}

func TestFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := FromSeed(seed)
	require.NoError(t, err)
	b, err := FromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, a.NodeID(), b.NodeID())
}
