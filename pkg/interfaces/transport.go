package interfaces

import (
	"context"
	"net"

	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

// ============================================================================
//                              Transport 接口
// ============================================================================

// Transport 传输层接口
//
// Transport 提供底层网络传输能力：监听入站连接并支持出站拨号。
// 监听与拨号产出的都是未升级的原始连接（RawConn）。
type Transport interface {
	// Dial 建立出站连接
	Dial(ctx context.Context, addr multiaddr.Multiaddr) (RawConn, error)

	// Listen 监听入站连接
	//
	// 地址族或协议不受支持时返回包装了 ErrUnsupportedAddress 的错误，
	// 且不留下已绑定的套接字。
	Listen(addr multiaddr.Multiaddr) (Listener, error)

	// Protocols 返回支持的协议标签
	Protocols() []string

	// CanDial 检查是否可以拨号到指定地址
	CanDial(addr multiaddr.Multiaddr) bool

	// Close 关闭传输层及其所有监听器
	Close() error
}

// ============================================================================
//                              Listener 接口
// ============================================================================

// Listener 监听器接口
//
// Accept 产出的连接序列是惰性、无界、不可重启的：
// 只会因 Close 而终止，不会自行结束。
type Listener interface {
	// Accept 接受连接
	// 阻塞直到有新连接到达或监听器关闭
	Accept() (RawConn, error)

	// Multiaddr 返回实际绑定的监听地址（端口 0 会被解析为实际端口）
	Multiaddr() multiaddr.Multiaddr

	// Close 关闭监听器
	Close() error
}

// ============================================================================
//                              RawConn 接口
// ============================================================================

// RawConn 原始传输连接
//
// 在升级开始后由升级管线独占持有，原始连接不再被直接使用。
type RawConn interface {
	net.Conn

	// LocalMultiaddr 本地多地址
	LocalMultiaddr() multiaddr.Multiaddr

	// RemoteMultiaddr 对端多地址
	RemoteMultiaddr() multiaddr.Multiaddr
}
