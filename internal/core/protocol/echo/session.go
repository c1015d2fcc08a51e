// Package echo 实现回显协议
//
// 对端发来的每条消息原样回写。消息以 varint 长度前缀分帧，
// 零长度帧是合法的空消息。对端在帧边界关闭时会话干净结束，
// 帧中途断开视为故障结束。
package echo

import (
	"errors"
	"io"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/types"
)

var logger = log.Logger("core/protocol/echo")

// ProtocolID 回显协议标识
const ProtocolID types.ProtocolID = "/echo/1.0.0"

// ============================================================================
//                              会话状态
// ============================================================================

// SessionState 会话状态
type SessionState int

const (
	// StateAwaitingFrame 等待下一帧
	StateAwaitingFrame SessionState = iota

	// StateEchoing 正在回写当前帧
	StateEchoing

	// StateClosedClean 对端在帧边界关闭，会话干净结束
	StateClosedClean

	// StateClosedFaulted 帧中途断开或读写出错
	StateClosedFaulted
)

// String 返回状态名
func (s SessionState) String() string {
	switch s {
	case StateAwaitingFrame:
		return "awaiting-frame"
	case StateEchoing:
		return "echoing"
	case StateClosedClean:
		return "closed-clean"
	case StateClosedFaulted:
		return "closed-faulted"
	default:
		return "invalid"
	}
}

// ============================================================================
//                              Session 实现
// ============================================================================

// Session 单条流上的回显会话
type Session struct {
	stream interfaces.MuxedStream

	state        SessionState
	framesEchoed uint64
	bytesEchoed  uint64
}

// NewSession 创建回显会话
func NewSession(stream interfaces.MuxedStream) *Session {
	return &Session{stream: stream}
}

// State 当前状态
func (s *Session) State() SessionState {
	return s.state
}

// FramesEchoed 已回显的帧数
func (s *Session) FramesEchoed() uint64 {
	return s.framesEchoed
}

// BytesEchoed 已回显的字节数（不含长度前缀）
func (s *Session) BytesEchoed() uint64 {
	return s.bytesEchoed
}

// Run 执行回显循环直到流结束
//
// 干净结束返回 nil，故障结束返回导致故障的错误。
// 两种结束方式都只影响本条流，不影响同连接上的其他流。
func (s *Session) Run() error {
	for {
		s.state = StateAwaitingFrame

		msg, err := ReadFrame(s.stream)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// 帧边界上的 EOF：对端正常收尾
				s.state = StateClosedClean
				return nil
			}
			s.state = StateClosedFaulted
			return err
		}

		s.state = StateEchoing
		if err := WriteFrame(s.stream, msg); err != nil {
			s.state = StateClosedFaulted
			return err
		}

		s.framesEchoed++
		s.bytesEchoed += uint64(len(msg))
	}
}

// ============================================================================
//                              处理器与客户端
// ============================================================================

// Handler 回显协议的流处理器
//
// 供协议注册表分发，会话结束后关闭流。
// 会话错误只记录日志，绝不向连接层传播。
func Handler(stream interfaces.MuxedStream) {
	session := NewSession(stream)
	if err := session.Run(); err != nil {
		logger.Debug("回显会话故障结束",
			"stream", stream.ID(),
			"frames", session.FramesEchoed(),
			"err", err)
	} else {
		logger.Debug("回显会话结束",
			"stream", stream.ID(),
			"frames", session.FramesEchoed(),
			"bytes", session.BytesEchoed())
	}
	_ = stream.Close()
}

// 确保 Handler 满足处理器签名
var _ interfaces.StreamHandler = Handler

// Send 发送一条消息并等待回显
//
// 返回对端回写的内容，由调用方核对是否一致。
func Send(stream interfaces.MuxedStream, msg []byte) ([]byte, error) {
	if err := WriteFrame(stream, msg); err != nil {
		return nil, err
	}
	return ReadFrame(stream)
}
