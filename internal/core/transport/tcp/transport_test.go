package tcp

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

func mustMultiaddr(t *testing.T, s string) multiaddr.Multiaddr {
	t.Helper()
	m, err := multiaddr.NewMultiaddr(s)
	require.NoError(t, err)
	return m
}

func TestListenAndDial(t *testing.T) {
	tr := NewTransport(DefaultConfig())
	defer tr.Close()

	listener, err := tr.Listen(mustMultiaddr(t, "/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)
	defer listener.Close()

	// 端口 0 应当被替换为实际端口
	port, err := listener.Multiaddr().ValueForProtocol(multiaddr.P_TCP)
	require.NoError(t, err)
	assert.NotEqual(t, "0", port)

	accepted := make(chan error, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			accepted <- err
			return
		}
		defer conn.Close()

		buf := make([]byte, 5)
		if _, err := io.ReadFull(conn, buf); err != nil {
			accepted <- err
			return
		}
		_, err = conn.Write(buf)
		accepted <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := tr.Dial(ctx, listener.Multiaddr())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, listener.Multiaddr().String(), conn.RemoteMultiaddr().String())

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	require.NoError(t, <-accepted)
}

func TestListenUnsupportedAddress(t *testing.T) {
	tr := NewTransport(DefaultConfig())
	defer tr.Close()

	addr := mustMultiaddr(t, "/dns4/localhost/tcp/10333")
	_, err := tr.Listen(addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedAddress)

	// 错误中携带被拒绝的原始地址
	var uerr *UnsupportedAddressError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, addr.String(), uerr.Addr.String())
}

func TestDialCanceledContext(t *testing.T) {
	tr := NewTransport(DefaultConfig())
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Dial(ctx, mustMultiaddr(t, "/ip4/127.0.0.1/tcp/1"))
	assert.Error(t, err)
}

func TestCanDial(t *testing.T) {
	tr := NewTransport(DefaultConfig())
	defer tr.Close()

	assert.True(t, tr.CanDial(mustMultiaddr(t, "/ip4/127.0.0.1/tcp/10333")))
	assert.True(t, tr.CanDial(mustMultiaddr(t, "/dns4/localhost/tcp/10333")))
}

func TestClosedTransport(t *testing.T) {
	tr := NewTransport(DefaultConfig())

	listener, err := tr.Listen(mustMultiaddr(t, "/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	assert.True(t, listener.(*Listener).IsClosed())

	_, err = tr.Listen(mustMultiaddr(t, "/ip4/127.0.0.1/tcp/0"))
	assert.ErrorIs(t, err, ErrTransportClosed)

	ctx := context.Background()
	_, err = tr.Dial(ctx, mustMultiaddr(t, "/ip4/127.0.0.1/tcp/1"))
	assert.ErrorIs(t, err, ErrTransportClosed)

	assert.False(t, tr.CanDial(mustMultiaddr(t, "/ip4/127.0.0.1/tcp/10333")))
}
