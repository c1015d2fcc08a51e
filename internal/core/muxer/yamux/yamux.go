// Package yamux 提供基于 hashicorp/yamux 的流多路复用实现
//
// 在单条已升级的连接上承载多条互相隔离的逻辑流。
package yamux

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-echo/pkg/interfaces"
)

// ProtocolID 多路复用协议标识
const ProtocolID = "/yamux/1.0.0"

// ============================================================================
//                              配置
// ============================================================================

// DefaultConfig 返回默认的 yamux 会话配置
func DefaultConfig() *yamux.Config {
	return &yamux.Config{
		AcceptBacklog:          256,
		EnableKeepAlive:        true,
		KeepAliveInterval:      30 * time.Second,
		ConnectionWriteTimeout: 10 * time.Second,
		MaxStreamWindowSize:    1024 * 1024,
		StreamOpenTimeout:      30 * time.Second,
		StreamCloseTimeout:     5 * time.Minute,
		LogOutput:              io.Discard,
	}
}

// ============================================================================
//                              Factory 实现
// ============================================================================

// Factory 多路复用器工厂
type Factory struct {
	config *yamux.Config
}

// 确保实现接口
var _ interfaces.MuxerFactory = (*Factory)(nil)

// NewFactory 创建工厂
func NewFactory() *Factory {
	return &Factory{config: DefaultConfig()}
}

// ID 返回协议标识
func (f *Factory) ID() string {
	return ProtocolID
}

// NewMuxer 在连接上建立多路复用会话
//
// isServer 决定流 ID 的奇偶分配，须与协商出的角色一致。
func (f *Factory) NewMuxer(conn net.Conn, isServer bool) (interfaces.Muxer, error) {
	var session *yamux.Session
	var err error
	if isServer {
		session, err = yamux.Server(conn, f.config)
	} else {
		session, err = yamux.Client(conn, f.config)
	}
	if err != nil {
		return nil, fmt.Errorf("new yamux session: %w", err)
	}
	return &muxer{session: session}, nil
}

// ============================================================================
//                              Muxer 实现
// ============================================================================

// muxer yamux 会话包装
type muxer struct {
	session *yamux.Session
}

var _ interfaces.Muxer = (*muxer)(nil)

// OpenStream 打开出站流
func (m *muxer) OpenStream(ctx context.Context) (interfaces.MuxedStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := m.session.OpenStream()
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	return &stream{stream: s}, nil
}

// AcceptStream 接受入站流
func (m *muxer) AcceptStream() (interfaces.MuxedStream, error) {
	s, err := m.session.AcceptStream()
	if err != nil {
		return nil, err
	}
	return &stream{stream: s}, nil
}

// Close 关闭会话及其所有流
func (m *muxer) Close() error {
	return m.session.Close()
}

// IsClosed 会话是否已关闭
func (m *muxer) IsClosed() bool {
	return m.session.IsClosed()
}

// NumStreams 当前活跃流数
func (m *muxer) NumStreams() int {
	return m.session.NumStreams()
}

// ============================================================================
//                              Stream 实现
// ============================================================================

// stream yamux 流包装
type stream struct {
	stream *yamux.Stream
}

var _ interfaces.MuxedStream = (*stream)(nil)

func (s *stream) Read(p []byte) (int, error) {
	return s.stream.Read(p)
}

func (s *stream) Write(p []byte) (int, error) {
	return s.stream.Write(p)
}

func (s *stream) Close() error {
	return s.stream.Close()
}

// ID 流标识，会话内唯一
func (s *stream) ID() uint32 {
	return s.stream.StreamID()
}

// Reset 立即终止流
//
// yamux 不提供独立的 reset 语义，等同于关闭。
func (s *stream) Reset() error {
	return s.stream.Close()
}

// CloseWrite 关闭写方向
//
// yamux 不支持半关闭，等同于关闭整条流。
func (s *stream) CloseWrite() error {
	return s.stream.Close()
}

func (s *stream) SetDeadline(t time.Time) error {
	return s.stream.SetDeadline(t)
}

func (s *stream) SetReadDeadline(t time.Time) error {
	return s.stream.SetReadDeadline(t)
}

func (s *stream) SetWriteDeadline(t time.Time) error {
	return s.stream.SetWriteDeadline(t)
}
