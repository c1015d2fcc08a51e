// Package tcp 提供基于 TCP 的传输层实现
//
// TCP 传输产出原始字节流连接，不提供安全和多路复用能力，
// 需要配合 Upgrader 使用。
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

var logger = log.Logger("core/transport/tcp")

// ============================================================================
//                              配置
// ============================================================================

// Config 传输配置
type Config struct {
	// DialTimeout 拨号超时
	DialTimeout time.Duration

	// KeepAlivePeriod 保活间隔
	KeepAlivePeriod time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		DialTimeout:     30 * time.Second,
		KeepAlivePeriod: 15 * time.Second,
	}
}

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport TCP 传输层实现
type Transport struct {
	config Config

	listeners   map[string]*Listener
	listenersMu sync.Mutex

	closed atomic.Bool
}

// 确保实现 interfaces.Transport 接口
var _ interfaces.Transport = (*Transport)(nil)

// NewTransport 创建 TCP 传输层
func NewTransport(config Config) *Transport {
	return &Transport{
		config:    config,
		listeners: make(map[string]*Listener),
	}
}

// Dial 建立出站连接
func (t *Transport) Dial(ctx context.Context, addr multiaddr.Multiaddr) (interfaces.RawConn, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	network, dialAddr, err := multiaddr.DialArgs(addr)
	if err != nil {
		return nil, &UnsupportedAddressError{Addr: addr}
	}

	dialer := &net.Dialer{
		Timeout:   t.config.DialTimeout,
		KeepAlive: t.config.KeepAlivePeriod,
	}

	conn, err := dialer.DialContext(ctx, network, dialAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("dial %s: not a tcp connection", addr)
	}
	_ = tcpConn.SetNoDelay(true)

	wrapped, err := NewConn(tcpConn)
	if err != nil {
		_ = tcpConn.Close()
		return nil, err
	}

	logger.Debug("拨号成功", "remote", wrapped.RemoteMultiaddr().String())
	return wrapped, nil
}

// Listen 监听入站连接
//
// 地址必须是 ip4/ip6 + tcp 的组合；其他组合（如 dns4 监听）
// 返回携带原始地址的 UnsupportedAddressError，且不留下已绑定的套接字。
// 已被占用的端口等 OS 层错误原样向上传播。
func (t *Transport) Listen(addr multiaddr.Multiaddr) (interfaces.Listener, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	network, listenAddr, err := listenArgs(addr)
	if err != nil {
		return nil, err
	}

	listener, err := newListener(network, listenAddr)
	if err != nil {
		return nil, err
	}

	t.listenersMu.Lock()
	t.listeners[listener.Multiaddr().String()] = listener
	t.listenersMu.Unlock()

	logger.Debug("监听成功", "addr", listener.Multiaddr().String())
	return listener, nil
}

// Protocols 返回支持的协议标签
func (t *Transport) Protocols() []string {
	return []string{"tcp"}
}

// CanDial 检查是否可以拨号到指定地址
func (t *Transport) CanDial(addr multiaddr.Multiaddr) bool {
	if t.closed.Load() {
		return false
	}
	_, _, err := multiaddr.DialArgs(addr)
	return err == nil
}

// Close 关闭传输层及其所有监听器
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	var lastErr error
	t.listenersMu.Lock()
	for _, l := range t.listeners {
		if err := l.Close(); err != nil {
			lastErr = err
		}
	}
	t.listeners = make(map[string]*Listener)
	t.listenersMu.Unlock()

	return lastErr
}

// listenArgs 解析监听地址
//
// 只接受 ip4/ip6 + tcp；dns4 等组合无法绑定，返回 UnsupportedAddressError。
func listenArgs(addr multiaddr.Multiaddr) (network string, listenAddr string, err error) {
	port, err := addr.ValueForProtocol(multiaddr.P_TCP)
	if err != nil {
		return "", "", &UnsupportedAddressError{Addr: addr}
	}

	if host, err := addr.ValueForProtocol(multiaddr.P_IP4); err == nil {
		return "tcp4", net.JoinHostPort(host, port), nil
	}
	if host, err := addr.ValueForProtocol(multiaddr.P_IP6); err == nil {
		return "tcp6", net.JoinHostPort(host, port), nil
	}

	return "", "", &UnsupportedAddressError{Addr: addr}
}
