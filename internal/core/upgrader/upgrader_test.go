package upgrader

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	mss "github.com/multiformats/go-multistream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-echo/internal/core/identity"
	"github.com/dep2p/go-echo/internal/core/muxer/yamux"
	"github.com/dep2p/go-echo/internal/core/security/noise"
	"github.com/dep2p/go-echo/internal/core/security/plaintext"
	tcptransport "github.com/dep2p/go-echo/internal/core/transport/tcp"
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/types"
)

// rawPair 在回环 TCP 上建立一对原始连接
func rawPair(t *testing.T) (client, server interfaces.RawConn) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	serverCh := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			serverCh <- conn
		}
	}()

	clientConn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	serverConn := <-serverCh

	client, err = tcptransport.NewConn(clientConn.(*net.TCPConn))
	require.NoError(t, err)
	server, err = tcptransport.NewConn(serverConn.(*net.TCPConn))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

// newUpgrader 构造带指定安全传输的升级器
func newUpgrader(t *testing.T, id *identity.Identity, withNoise, withPlaintext bool) *Upgrader {
	t.Helper()

	var security []interfaces.SecureTransport
	if withPlaintext {
		security = append(security, plaintext.New(id))
	}
	if withNoise {
		n, err := noise.New(id)
		require.NoError(t, err)
		security = append(security, n)
	}

	u, err := New(id.NodeID(), security, []interfaces.MuxerFactory{yamux.NewFactory()})
	require.NoError(t, err)
	return u
}

func newIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return id
}

// upgradePair 双向完成升级
func upgradePair(t *testing.T, clientUp, serverUp *Upgrader, remotePeer types.NodeID) (client, server interfaces.UpgradedConn) {
	t.Helper()

	rawClient, rawServer := rawPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		conn interfaces.UpgradedConn
		err  error
	}
	serverCh := make(chan result, 1)
	go func() {
		conn, err := serverUp.Upgrade(ctx, rawServer, types.DirInbound, "")
		serverCh <- result{conn, err}
	}()

	clientConn, err := clientUp.Upgrade(ctx, rawClient, types.DirOutbound, remotePeer)
	require.NoError(t, err)

	serverResult := <-serverCh
	require.NoError(t, serverResult.err)

	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverResult.conn.Close()
	})
	return clientConn, serverResult.conn
}

func TestUpgradePrefersNoise(t *testing.T) {
	clientID := newIdentity(t)
	serverID := newIdentity(t)

	// 两侧都注册明文在前，重排后仍应选中 Noise
	clientUp := newUpgrader(t, clientID, true, true)
	serverUp := newUpgrader(t, serverID, true, true)

	clientConn, serverConn := upgradePair(t, clientUp, serverUp, serverID.NodeID())

	assert.Equal(t, noise.ProtocolID, clientConn.Security())
	assert.Equal(t, noise.ProtocolID, serverConn.Security())
	assert.Equal(t, yamux.ProtocolID, clientConn.MuxerID())
	assert.Equal(t, serverID.NodeID(), clientConn.RemotePeer())
	assert.Equal(t, clientID.NodeID(), serverConn.RemotePeer())
}

func TestUpgradeFallsBackToPlaintext(t *testing.T) {
	clientID := newIdentity(t)
	serverID := newIdentity(t)

	clientUp := newUpgrader(t, clientID, false, true)
	serverUp := newUpgrader(t, serverID, true, true)

	clientConn, serverConn := upgradePair(t, clientUp, serverUp, serverID.NodeID())

	assert.Equal(t, plaintext.ProtocolID, clientConn.Security())
	assert.Equal(t, plaintext.ProtocolID, serverConn.Security())
}

func TestUpgradedStreamCarriesData(t *testing.T) {
	clientUp := newUpgrader(t, newIdentity(t), true, false)
	serverID := newIdentity(t)
	serverUp := newUpgrader(t, serverID, true, false)

	clientConn, serverConn := upgradePair(t, clientUp, serverUp, serverID.NodeID())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := clientConn.OpenStream(ctx)
	require.NoError(t, err)
	defer stream.Close()

	go func() {
		_, _ = stream.Write([]byte("through the pipeline"))
	}()

	accepted, err := serverConn.AcceptStream()
	require.NoError(t, err)
	defer accepted.Close()

	buf := make([]byte, 20)
	_, err = io.ReadFull(accepted, buf)
	require.NoError(t, err)
	assert.Equal(t, "through the pipeline", string(buf))
}

func TestUpgradeTimesOutWhenPeerStallsAfterHandshake(t *testing.T) {
	serverID := newIdentity(t)
	serverUp := newUpgrader(t, serverID, false, true)

	rawClient, rawServer := rawPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := serverUp.Upgrade(ctx, rawServer, types.DirInbound, "")
		done <- err
	}()

	// 对端走完安全阶段后沉默，不发起复用协商
	_, err := mss.SelectOneOf([]string{string(plaintext.ProtocolID)}, rawClient)
	require.NoError(t, err)
	_, err = plaintext.New(newIdentity(t)).SecureOutbound(ctx, rawClient, "")
	require.NoError(t, err)

	// 升级必须在自身期限内失败，不能等对端配合
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("upgrade did not observe its deadline")
	}
}

func TestUpgradeUnblocksOnContextCancel(t *testing.T) {
	serverUp := newUpgrader(t, newIdentity(t), true, true)
	_, rawServer := rawPair(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		// 对端始终沉默，升级停在安全协商阶段
		_, err := serverUp.Upgrade(ctx, rawServer, types.DirInbound, "")
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("upgrade did not observe cancellation")
	}
}

func TestUpgradeRejectsUnknownDirection(t *testing.T) {
	up := newUpgrader(t, newIdentity(t), true, true)
	rawClient, _ := rawPair(t)

	_, err := up.Upgrade(context.Background(), rawClient, types.DirUnknown, "")
	assert.ErrorIs(t, err, ErrDirectionUnknown)
}

func TestNewRequiresComponents(t *testing.T) {
	id := newIdentity(t)

	_, err := New(id.NodeID(), nil, []interfaces.MuxerFactory{yamux.NewFactory()})
	assert.ErrorIs(t, err, ErrNoSecurity)

	_, err = New(id.NodeID(), []interfaces.SecureTransport{plaintext.New(id)}, nil)
	assert.ErrorIs(t, err, ErrNoMuxer)
}

func TestSelectSecurityOrdersStrongestFirst(t *testing.T) {
	got := SelectSecurity([]types.ProtocolID{"/plaintext/1.0.0", "/noise"})
	require.Len(t, got, 2)
	assert.Equal(t, types.ProtocolID("/noise"), got[0])
	assert.Equal(t, types.ProtocolID("/plaintext/1.0.0"), got[1])

	// 未知协议排在已知协议之后，保持原序
	got = SelectSecurity([]types.ProtocolID{"/custom/1", "/noise", "/custom/2"})
	assert.Equal(t, []types.ProtocolID{"/noise", "/custom/1", "/custom/2"}, got)
}
