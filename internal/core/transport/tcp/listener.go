package tcp

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

// ============================================================================
//                              Listener 实现
// ============================================================================

// Listener TCP 监听器
type Listener struct {
	listener *net.TCPListener
	addr     multiaddr.Multiaddr
	closed   atomic.Bool
}

// 确保实现接口
var _ interfaces.Listener = (*Listener)(nil)

// newListener 在解析好的地址上创建监听器
func newListener(network, listenAddr string) (*Listener, error) {
	l, err := net.Listen(network, listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s %s: %w", network, listenAddr, err)
	}

	tcpListener, ok := l.(*net.TCPListener)
	if !ok {
		_ = l.Close()
		return nil, fmt.Errorf("listen %s: not a tcp listener", listenAddr)
	}

	// 获取实际监听地址（端口可能是 0）
	actualAddr, err := multiaddr.FromNetAddr(tcpListener.Addr())
	if err != nil {
		_ = tcpListener.Close()
		return nil, err
	}

	return &Listener{
		listener: tcpListener,
		addr:     actualAddr,
	}, nil
}

// Accept 接受连接
func (l *Listener) Accept() (interfaces.RawConn, error) {
	conn, err := l.listener.AcceptTCP()
	if err != nil {
		return nil, err
	}

	// 设置连接选项
	_ = conn.SetNoDelay(true)
	_ = conn.SetKeepAlive(true)

	wrapped, err := NewConn(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return wrapped, nil
}

// Multiaddr 返回实际绑定的监听地址
func (l *Listener) Multiaddr() multiaddr.Multiaddr {
	return l.addr
}

// Close 关闭监听器
func (l *Listener) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		return l.listener.Close()
	}
	return nil
}

// IsClosed 检查监听器是否已关闭
func (l *Listener) IsClosed() bool {
	return l.closed.Load()
}
