package swarm

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-echo/internal/core/identity"
	"github.com/dep2p/go-echo/internal/core/muxer/yamux"
	"github.com/dep2p/go-echo/internal/core/protocol"
	"github.com/dep2p/go-echo/internal/core/protocol/echo"
	"github.com/dep2p/go-echo/internal/core/security/noise"
	"github.com/dep2p/go-echo/internal/core/security/plaintext"
	"github.com/dep2p/go-echo/internal/core/transport/tcp"
	"github.com/dep2p/go-echo/internal/core/upgrader"
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

// newNode 构造带回显协议的完整节点
func newNode(t *testing.T) *Swarm {
	t.Helper()

	id, err := identity.Generate()
	require.NoError(t, err)

	noiseTransport, err := noise.New(id)
	require.NoError(t, err)

	up, err := upgrader.New(id.NodeID(),
		[]interfaces.SecureTransport{noiseTransport, plaintext.New(id)},
		[]interfaces.MuxerFactory{yamux.NewFactory()})
	require.NoError(t, err)

	registry := protocol.NewRegistry()
	require.NoError(t, registry.Register(echo.ProtocolID, echo.Handler))

	s := New(id.NodeID(), tcp.NewTransport(tcp.DefaultConfig()), up, registry)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// listenLoopback 监听回环地址并返回实际地址
func listenLoopback(t *testing.T, s *Swarm) multiaddr.Multiaddr {
	t.Helper()

	addr, err := multiaddr.NewMultiaddr("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	require.NoError(t, s.Listen(addr))

	addrs := s.ListenAddrs()
	require.Len(t, addrs, 1)
	return addrs[0]
}

func TestEchoEndToEnd(t *testing.T) {
	server := newNode(t)
	client := newNode(t)

	addr := listenLoopback(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := client.NewStream(ctx, addr, echo.ProtocolID)
	require.NoError(t, err)
	defer stream.Close()

	for _, msg := range [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("a longer message to make sure framing holds up"),
	} {
		echoed, err := echo.Send(stream, msg)
		require.NoError(t, err)
		assert.Equal(t, msg, echoed)
	}
}

func TestConnectionReuse(t *testing.T) {
	server := newNode(t)
	client := newNode(t)

	addr := listenLoopback(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn1, err := client.Dial(ctx, addr)
	require.NoError(t, err)
	conn2, err := client.Dial(ctx, addr)
	require.NoError(t, err)

	// 同地址复用同一条连接
	assert.Same(t, conn1, conn2)
	assert.Equal(t, 1, client.NumConns())
}

func TestConcurrentDialsShareConnection(t *testing.T) {
	server := newNode(t)
	client := newNode(t)

	addr := listenLoopback(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const dialers = 8
	conns := make([]interfaces.UpgradedConn, dialers)

	var wg sync.WaitGroup
	for i := 0; i < dialers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := client.Dial(ctx, addr)
			assert.NoError(t, err)
			conns[i] = conn
		}(i)
	}
	wg.Wait()

	for i := 1; i < dialers; i++ {
		assert.Same(t, conns[0], conns[i])
	}
	assert.Equal(t, 1, client.NumConns())
}

func TestStreamFaultDoesNotAffectSiblings(t *testing.T) {
	server := newNode(t)
	client := newNode(t)

	addr := listenLoopback(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthy, err := client.NewStream(ctx, addr, echo.ProtocolID)
	require.NoError(t, err)
	defer healthy.Close()

	faulty, err := client.NewStream(ctx, addr, echo.ProtocolID)
	require.NoError(t, err)

	// 故障流：长度前缀声称 100 字节，只给一半就重置
	_, err = faulty.Write([]byte{100, 'h', 'a', 'l', 'f'})
	require.NoError(t, err)
	require.NoError(t, faulty.Reset())

	// 健康流不受影响
	echoed, err := echo.Send(healthy, []byte("still fine"))
	require.NoError(t, err)
	assert.Equal(t, []byte("still fine"), echoed)
}

func TestGarbageConnectionDoesNotKillListener(t *testing.T) {
	server := newNode(t)
	addr := listenLoopback(t, server)

	_, dialAddr, err := multiaddr.DialArgs(addr)
	require.NoError(t, err)

	// 直接发垃圾字节，升级必然失败
	raw, err := net.Dial("tcp", dialAddr)
	require.NoError(t, err)
	_, _ = raw.Write([]byte("definitely not multistream"))
	_ = raw.Close()

	// 监听循环应继续服务正常客户端
	client := newNode(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := client.NewStream(ctx, addr, echo.ProtocolID)
	require.NoError(t, err)
	defer stream.Close()

	echoed, err := echo.Send(stream, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), echoed)
}

func TestCloseUnblocksPendingUpgrades(t *testing.T) {
	server := newNode(t)
	addr := listenLoopback(t, server)

	_, dialAddr, err := multiaddr.DialArgs(addr)
	require.NoError(t, err)

	// 连上后保持沉默，入站升级停在协商阶段
	raw, err := net.Dial("tcp", dialAddr)
	require.NoError(t, err)
	defer raw.Close()
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = server.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("close blocked on a pending upgrade")
	}
}

func TestDialAfterClose(t *testing.T) {
	client := newNode(t)
	require.NoError(t, client.Close())

	addr, err := multiaddr.NewMultiaddr("/ip4/127.0.0.1/tcp/1")
	require.NoError(t, err)

	_, err = client.Dial(context.Background(), addr)
	assert.ErrorIs(t, err, ErrSwarmClosed)

	err = client.Listen(addr)
	assert.ErrorIs(t, err, ErrSwarmClosed)
}
