// Package swarm 管理节点的全部连接
//
// 负责监听入站连接、拨出并复用出站连接，把每条连接升级后
// 交给协议注册表分发流。单条连接或单条流的错误只影响自身，
// 绝不拖垮监听循环或其他连接。
package swarm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-echo/internal/core/protocol"
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
	"github.com/dep2p/go-echo/pkg/types"
)

var logger = log.Logger("core/swarm")

// ============================================================================
//                              Swarm 实现
// ============================================================================

// Swarm 连接管理器
type Swarm struct {
	localPeer types.NodeID
	transport interfaces.Transport
	upgrader  interfaces.Upgrader
	registry  *protocol.Registry

	// conns 活跃连接表，键为对端多地址
	conns   map[string]interfaces.UpgradedConn
	connsMu sync.Mutex

	// dials 进行中的拨号，同地址并发拨号只拨一次
	dials   map[string]*pendingDial
	dialsMu sync.Mutex

	listeners   []interfaces.Listener
	listenersMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New 创建连接管理器
func New(localPeer types.NodeID, transport interfaces.Transport, upgrader interfaces.Upgrader, registry *protocol.Registry) *Swarm {
	ctx, cancel := context.WithCancel(context.Background())
	return &Swarm{
		localPeer: localPeer,
		transport: transport,
		upgrader:  upgrader,
		registry:  registry,
		conns:     make(map[string]interfaces.UpgradedConn),
		dials:     make(map[string]*pendingDial),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// LocalPeer 本地节点 ID
func (s *Swarm) LocalPeer() types.NodeID {
	return s.localPeer
}

// Registry 协议注册表
func (s *Swarm) Registry() *protocol.Registry {
	return s.registry
}

// ListenAddrs 当前监听地址
func (s *Swarm) ListenAddrs() []multiaddr.Multiaddr {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	addrs := make([]multiaddr.Multiaddr, 0, len(s.listeners))
	for _, l := range s.listeners {
		addrs = append(addrs, l.Multiaddr())
	}
	return addrs
}

// NumConns 当前活跃连接数
func (s *Swarm) NumConns() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

// Close 关闭群组：停止监听，关闭所有连接，等待循环退出
func (s *Swarm) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()

	s.listenersMu.Lock()
	for _, l := range s.listeners {
		_ = l.Close()
	}
	s.listeners = nil
	s.listenersMu.Unlock()

	s.connsMu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = make(map[string]interfaces.UpgradedConn)
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// addConn 记录连接并启动其流分发循环
func (s *Swarm) addConn(conn interfaces.UpgradedConn) {
	key := conn.RemoteMultiaddr().String()

	s.connsMu.Lock()
	// 同地址的旧连接已失效时替换
	if old, ok := s.conns[key]; ok && old.IsClosed() {
		delete(s.conns, key)
	}
	s.conns[key] = conn
	s.connsMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.handleConn(conn)
	}()
}

// removeConn 从连接表移除
func (s *Swarm) removeConn(conn interfaces.UpgradedConn) {
	key := conn.RemoteMultiaddr().String()

	s.connsMu.Lock()
	if s.conns[key] == conn {
		delete(s.conns, key)
	}
	s.connsMu.Unlock()
}

// handleConn 接收连接上的入站流并分发
//
// 单条流的协商或处理错误只记日志，连接继续服务其他流。
func (s *Swarm) handleConn(conn interfaces.UpgradedConn) {
	defer func() {
		s.removeConn(conn)
		_ = conn.Close()
	}()

	for {
		stream, err := conn.AcceptStream()
		if err != nil {
			// 会话结束（关闭或对端断开）
			logger.Debug("连接结束",
				"remote", conn.RemotePeer().ShortString(),
				"err", err)
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.registry.HandleStream(stream); err != nil {
				logger.Debug("流处理失败",
					"remote", conn.RemotePeer().ShortString(),
					"err", err)
			}
		}()
	}
}
