package interfaces

import (
	"context"

	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
	"github.com/dep2p/go-echo/pkg/types"
)

// Upgrader 连接升级器接口
//
// Upgrader 负责将原始连接升级为安全、多路复用的连接。
// 升级过程严格按序执行，任一阶段失败只终止该连接：
//  1. 安全协议协商（multistream-select）
//  2. 安全握手（plaintext/noise）
//  3. 多路复用协商（multistream-select）
//  4. 多路复用设置（yamux）
type Upgrader interface {
	// Upgrade 升级连接
	//
	// 参数：
	//  - ctx: 上下文（用于超时控制）
	//  - conn: 原始连接
	//  - dir: 连接方向（Inbound/Outbound）
	//  - remotePeer: 远程节点 ID（Outbound 可提供用于身份验证，Inbound 为空）
	Upgrade(ctx context.Context, conn RawConn, dir types.Direction,
		remotePeer types.NodeID) (UpgradedConn, error)
}

// UpgradedConn 升级后的连接接口
//
// 逻辑上取代原始连接；升级开始后原始连接不再被使用。
// 嵌入 Muxer 接口，并提供安全信息访问。
type UpgradedConn interface {
	Muxer

	// LocalPeer 返回本地节点 ID
	LocalPeer() types.NodeID

	// RemotePeer 返回远端节点 ID
	RemotePeer() types.NodeID

	// RemoteMultiaddr 返回对端多地址
	RemoteMultiaddr() multiaddr.Multiaddr

	// Security 返回协商出的安全协议，如 "/noise"
	Security() types.ProtocolID

	// MuxerID 返回协商出的多路复用器，如 "/yamux/1.0.0"
	MuxerID() string
}
