package swarm

import (
	"context"
	"fmt"

	"github.com/dep2p/go-echo/internal/core/protocol"
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
	"github.com/dep2p/go-echo/pkg/types"
)

// pendingDial 进行中的拨号
//
// done 关闭后 conn 与 err 有效。
type pendingDial struct {
	done chan struct{}
	conn interfaces.UpgradedConn
	err  error
}

// Dial 取得到指定地址的连接
//
// 同地址的活跃连接直接复用；并发拨号同一地址只建立一条连接，
// 后到者等待先行者的结果。
func (s *Swarm) Dial(ctx context.Context, addr multiaddr.Multiaddr) (interfaces.UpgradedConn, error) {
	if s.closed.Load() {
		return nil, ErrSwarmClosed
	}

	key := addr.String()

	// 复用活跃连接
	s.connsMu.Lock()
	if conn, ok := s.conns[key]; ok && !conn.IsClosed() {
		s.connsMu.Unlock()
		return conn, nil
	}
	s.connsMu.Unlock()

	// 并发拨号去重
	s.dialsMu.Lock()
	if pending, ok := s.dials[key]; ok {
		s.dialsMu.Unlock()
		select {
		case <-pending.done:
			return pending.conn, pending.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	pending := &pendingDial{done: make(chan struct{})}
	s.dials[key] = pending
	s.dialsMu.Unlock()

	conn, err := s.dialAndUpgrade(ctx, addr)

	pending.conn = conn
	pending.err = err
	close(pending.done)

	s.dialsMu.Lock()
	delete(s.dials, key)
	s.dialsMu.Unlock()

	return conn, err
}

// dialAndUpgrade 建立并升级一条新连接
func (s *Swarm) dialAndUpgrade(ctx context.Context, addr multiaddr.Multiaddr) (interfaces.UpgradedConn, error) {
	raw, err := s.transport.Dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	upgraded, err := s.upgrader.Upgrade(ctx, raw, types.DirOutbound, "")
	if err != nil {
		return nil, fmt.Errorf("upgrade %s: %w", addr, err)
	}

	logger.Info("出站连接建立",
		"remote", upgraded.RemotePeer().ShortString(),
		"addr", addr.String(),
		"security", string(upgraded.Security()))
	s.addConn(upgraded)
	return upgraded, nil
}

// NewStream 在到指定地址的连接上打开一条流并协商协议
//
// 需要时自动建连；连接来自复用或新建对调用方透明。
func (s *Swarm) NewStream(ctx context.Context, addr multiaddr.Multiaddr, proto types.ProtocolID) (interfaces.MuxedStream, error) {
	conn, err := s.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	stream, err := conn.OpenStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	if err := protocol.SelectProtocol(stream, proto); err != nil {
		_ = stream.Reset()
		return nil, err
	}
	return stream, nil
}
