package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDFromPublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	id, err := NodeIDFromPublicKey(pub)
	require.NoError(t, err)
	require.NoError(t, id.Validate())

	// 同一公钥派生结果确定
	id2, err := NodeIDFromPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	// 不同公钥派生结果不同
	pub2, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	id3, err := NodeIDFromPublicKey(pub2)
	require.NoError(t, err)
	assert.NotEqual(t, id, id3)
}

func TestNodeIDFromPublicKeyRejectsBadLength(t *testing.T) {
	_, err := NodeIDFromPublicKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidNodeID)
}

func TestNodeIDShortString(t *testing.T) {
	assert.Equal(t, "abc", NodeID("abc").ShortString())
	assert.Equal(t, "12345678", NodeID("123456789abcdef").ShortString())
}

func TestNodeIDValidate(t *testing.T) {
	assert.ErrorIs(t, NodeID("").Validate(), ErrInvalidNodeID)
	assert.ErrorIs(t, NodeID("not!base58").Validate(), ErrInvalidNodeID)
	assert.ErrorIs(t, NodeID("abc").Validate(), ErrInvalidNodeID)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "inbound", DirInbound.String())
	assert.Equal(t, "outbound", DirOutbound.String())
	assert.Equal(t, "unknown", DirUnknown.String())
}
