package interfaces

import (
	"context"
	"io"
	"net"
	"time"
)

// ============================================================================
//                              Muxer 接口
// ============================================================================

// Muxer 多路复用器接口
//
// Muxer 在单个底层连接上提供多个独立的逻辑流。
// 流内字节保序；不同流之间不保证任何顺序，
// 一个流的停滞不会阻塞其他流。
type Muxer interface {
	// OpenStream 创建新的出站流
	OpenStream(ctx context.Context) (MuxedStream, error)

	// AcceptStream 接受对端发起的流
	// 阻塞直到有新流到达或连接关闭；序列无界，只因连接关闭而终止
	AcceptStream() (MuxedStream, error)

	// Close 关闭多路复用器，所有流都会被关闭
	Close() error

	// IsClosed 检查是否已关闭
	IsClosed() bool

	// NumStreams 返回当前流数量
	NumStreams() int
}

// ============================================================================
//                              MuxedStream 接口
// ============================================================================

// MuxedStream 多路复用流接口
//
// MuxedStream 是 Muxer 上的逻辑流，支持全双工通信，
// 由单个会话 goroutine 独占读写。
type MuxedStream interface {
	io.ReadWriteCloser

	// ID 返回流 ID，在单个 Muxer 中唯一
	ID() uint32

	// Reset 立即关闭流，丢弃未发送数据
	Reset() error

	// CloseWrite 关闭写端，对端会收到 EOF
	CloseWrite() error

	// SetDeadline 设置读写超时
	SetDeadline(t time.Time) error

	// SetReadDeadline 设置读超时
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline 设置写超时
	SetWriteDeadline(t time.Time) error
}

// ============================================================================
//                              MuxerFactory 接口
// ============================================================================

// MuxerFactory 多路复用器工厂接口
//
// 用于从（可能已加密的）底层连接创建多路复用器。
type MuxerFactory interface {
	// ID 返回协商用的协议标识，如 "/yamux/1.0.0"
	ID() string

	// NewMuxer 从连接创建多路复用器
	// isServer 表示本端是否是服务端
	NewMuxer(conn net.Conn, isServer bool) (Muxer, error)
}

// StreamHandler 入站流处理函数
//
// 协议协商成功后，流的所有权移交给 handler。
type StreamHandler func(stream MuxedStream)
