package upgrader

import (
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
	"github.com/dep2p/go-echo/pkg/types"
)

// upgradedConn 升级完成的连接
//
// 嵌入多路复用会话，附带两端身份与协商结果。
type upgradedConn struct {
	interfaces.Muxer

	localPeer  types.NodeID
	remotePeer types.NodeID
	remoteAddr multiaddr.Multiaddr
	security   types.ProtocolID
	muxerID    string
}

var _ interfaces.UpgradedConn = (*upgradedConn)(nil)

// LocalPeer 本地节点 ID
func (c *upgradedConn) LocalPeer() types.NodeID {
	return c.localPeer
}

// RemotePeer 对端节点 ID
func (c *upgradedConn) RemotePeer() types.NodeID {
	return c.remotePeer
}

// RemoteMultiaddr 对端多地址
func (c *upgradedConn) RemoteMultiaddr() multiaddr.Multiaddr {
	return c.remoteAddr
}

// Security 协商出的安全协议
func (c *upgradedConn) Security() types.ProtocolID {
	return c.security
}

// MuxerID 协商出的多路复用协议
func (c *upgradedConn) MuxerID() string {
	return c.muxerID
}
