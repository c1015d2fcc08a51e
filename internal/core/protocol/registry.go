// Package protocol 管理流协议的注册与按流协商
//
// 每条新打开的流先经过一轮 multistream 协商确定应用协议，
// 再交给对应的处理器。注册表可在运行期增删协议。
package protocol

import (
	"fmt"
	"sync"
	"time"

	mss "github.com/multiformats/go-multistream"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/types"
)

var logger = log.Logger("core/protocol")

// negotiateTimeout 单条流的协商超时
const negotiateTimeout = 30 * time.Second

// ============================================================================
//                              Registry 实现
// ============================================================================

// Registry 流协议注册表
type Registry struct {
	mu       sync.RWMutex
	handlers map[types.ProtocolID]interfaces.StreamHandler
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[types.ProtocolID]interfaces.StreamHandler),
	}
}

// Register 注册协议处理器
func (r *Registry) Register(proto types.ProtocolID, handler interfaces.StreamHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[proto]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, proto)
	}
	r.handlers[proto] = handler
	return nil
}

// Unregister 注销协议
func (r *Registry) Unregister(proto types.ProtocolID) {
	r.mu.Lock()
	delete(r.handlers, proto)
	r.mu.Unlock()
}

// Protocols 返回当前注册的协议集合
func (r *Registry) Protocols() []types.ProtocolID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	protos := make([]types.ProtocolID, 0, len(r.handlers))
	for p := range r.handlers {
		protos = append(protos, p)
	}
	return protos
}

// HandleStream 协商入站流的协议并分发给处理器
//
// 协商失败或协议未注册时重置流；协商期间施加读写期限，
// 防止缄默的对端占住流。处理器在当前 goroutine 中运行。
func (r *Registry) HandleStream(stream interfaces.MuxedStream) error {
	_ = stream.SetDeadline(time.Now().Add(negotiateTimeout))

	muxer := mss.NewMultistreamMuxer[string]()
	r.mu.RLock()
	for p := range r.handlers {
		muxer.AddHandler(string(p), nil)
	}
	r.mu.RUnlock()

	proto, _, err := muxer.Negotiate(stream)
	if err != nil {
		_ = stream.Reset()
		return fmt.Errorf("%w: %v", ErrNegotiation, err)
	}

	r.mu.RLock()
	handler := r.handlers[types.ProtocolID(proto)]
	r.mu.RUnlock()
	if handler == nil {
		_ = stream.Reset()
		return fmt.Errorf("%w: %s", ErrNotRegistered, proto)
	}

	_ = stream.SetDeadline(time.Time{})

	logger.Debug("流协议协商完成", "protocol", proto, "stream", stream.ID())
	handler(stream)
	return nil
}

// SelectProtocol 在出站流上协商指定协议
func SelectProtocol(stream interfaces.MuxedStream, proto types.ProtocolID) error {
	_ = stream.SetDeadline(time.Now().Add(negotiateTimeout))
	defer stream.SetDeadline(time.Time{})

	if _, err := mss.SelectOneOf([]string{string(proto)}, stream); err != nil {
		return fmt.Errorf("%w: %v", ErrNegotiation, err)
	}
	return nil
}
