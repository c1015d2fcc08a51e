package plaintext

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-echo/internal/core/identity"
	"github.com/dep2p/go-echo/pkg/interfaces"
)

// handshakePair 在管道上完成一次双向握手
func handshakePair(t *testing.T, client, server *Transport) (interfaces.SecureConn, interfaces.SecureConn) {
	t.Helper()

	clientConn, serverConn := net.Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		conn interfaces.SecureConn
		err  error
	}
	serverCh := make(chan result, 1)
	go func() {
		conn, err := server.SecureInbound(ctx, serverConn)
		serverCh <- result{conn, err}
	}()

	clientSecure, err := client.SecureOutbound(ctx, clientConn, server.identity.NodeID())
	require.NoError(t, err)

	serverResult := <-serverCh
	require.NoError(t, serverResult.err)

	return clientSecure, serverResult.conn
}

func newTransport(t *testing.T) *Transport {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return New(id)
}

func TestHandshakeExchangesPeers(t *testing.T) {
	client := newTransport(t)
	server := newTransport(t)

	clientConn, serverConn := handshakePair(t, client, server)
	defer clientConn.Close()
	defer serverConn.Close()

	assert.Equal(t, server.identity.NodeID(), clientConn.RemotePeer())
	assert.Equal(t, client.identity.NodeID(), serverConn.RemotePeer())
	assert.Equal(t, client.identity.NodeID(), clientConn.LocalPeer())
}

func TestDataPassesThrough(t *testing.T) {
	clientConn, serverConn := handshakePair(t, newTransport(t), newTransport(t))
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		_, _ = clientConn.Write([]byte("ping"))
	}()

	buf := make([]byte, 4)
	_, err := io.ReadFull(serverConn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestOutboundPeerMismatch(t *testing.T) {
	client := newTransport(t)
	server := newTransport(t)
	other := newTransport(t)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		_, _ = server.SecureInbound(ctx, serverConn)
	}()

	// 期望的是 other 的身份，实际对端是 server
	_, err := client.SecureOutbound(ctx, clientConn, other.identity.NodeID())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPeerMismatch)
}

func TestRejectsOversizedKeyFrame(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		// 声称 4096 字节的公钥
		_, _ = clientConn.Write([]byte{0x10, 0x00})
	}()

	_, err := newTransport(t).SecureInbound(ctx, serverConn)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadKeyFrame)
}
