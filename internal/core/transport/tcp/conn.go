package tcp

import (
	"net"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

// ============================================================================
//                              Conn 实现
// ============================================================================

// Conn TCP 原始连接
//
// 封装 net.TCPConn，附带两端的多地址。
// 由接收它的升级管线独占持有。
type Conn struct {
	*net.TCPConn

	localAddr  multiaddr.Multiaddr
	remoteAddr multiaddr.Multiaddr
}

// 确保实现接口
var _ interfaces.RawConn = (*Conn)(nil)

// NewConn 封装 TCP 连接
func NewConn(conn *net.TCPConn) (*Conn, error) {
	local, err := multiaddr.FromNetAddr(conn.LocalAddr())
	if err != nil {
		return nil, err
	}
	remote, err := multiaddr.FromNetAddr(conn.RemoteAddr())
	if err != nil {
		return nil, err
	}
	return &Conn{
		TCPConn:    conn,
		localAddr:  local,
		remoteAddr: remote,
	}, nil
}

// LocalMultiaddr 本地多地址
func (c *Conn) LocalMultiaddr() multiaddr.Multiaddr {
	return c.localAddr
}

// RemoteMultiaddr 对端多地址
func (c *Conn) RemoteMultiaddr() multiaddr.Multiaddr {
	return c.remoteAddr
}
