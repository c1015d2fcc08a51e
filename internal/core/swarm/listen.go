package swarm

import (
	"fmt"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
	"github.com/dep2p/go-echo/pkg/types"
)

// Listen 在地址上开始监听
//
// 监听器启动后接受循环在后台运行，单条连接的接受或升级
// 失败只记日志，循环继续。
func (s *Swarm) Listen(addr multiaddr.Multiaddr) error {
	if s.closed.Load() {
		return ErrSwarmClosed
	}

	listener, err := s.transport.Listen(addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.listenersMu.Lock()
	s.listeners = append(s.listeners, listener)
	s.listenersMu.Unlock()

	logger.Info("开始监听", "addr", listener.Multiaddr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(listener)
	}()
	return nil
}

// acceptLoop 接受入站连接
func (s *Swarm) acceptLoop(listener interfaces.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			// 监听器被关闭或出错即退出循环
			logger.Debug("接受循环退出", "addr", listener.Multiaddr().String(), "err", err)
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.upgradeInbound(conn)
		}()
	}
}

// upgradeInbound 升级入站连接并纳入管理
//
// 升级失败只影响该连接：升级器已关闭底层连接，这里记日志即可。
func (s *Swarm) upgradeInbound(conn interfaces.RawConn) {
	upgraded, err := s.upgrader.Upgrade(s.ctx, conn, types.DirInbound, "")
	if err != nil {
		logger.Debug("入站连接升级失败",
			"remote", conn.RemoteMultiaddr().String(),
			"err", err)
		return
	}

	logger.Info("入站连接建立",
		"remote", upgraded.RemotePeer().ShortString(),
		"addr", upgraded.RemoteMultiaddr().String(),
		"security", string(upgraded.Security()))
	s.addConn(upgraded)
}
