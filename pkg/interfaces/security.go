package interfaces

import (
	"context"
	"net"

	"github.com/dep2p/go-echo/pkg/types"
)

// ============================================================================
//                              SecureTransport 接口
// ============================================================================

// SecureTransport 安全传输接口
//
// SecureTransport 将原始连接升级为带身份信息的安全通道。
// "/plaintext/1.0.0" 是透传实现，"/noise" 提供加密和双向认证。
type SecureTransport interface {
	// ID 返回安全协议标识（用于 multistream-select 协商）
	ID() types.ProtocolID

	// SecureInbound 对入站连接进行安全握手
	//
	// 用于服务端，被动接受安全握手。
	SecureInbound(ctx context.Context, conn net.Conn) (SecureConn, error)

	// SecureOutbound 对出站连接进行安全握手
	//
	// 用于客户端，主动发起安全握手。
	// remotePeer 是期望的远程节点 ID，非空时用于身份验证。
	SecureOutbound(ctx context.Context, conn net.Conn, remotePeer types.NodeID) (SecureConn, error)
}

// ============================================================================
//                              SecureConn 接口
// ============================================================================

// SecureConn 安全连接接口
//
// 与输入连接保持相同的读写契约，另外提供双方身份。
type SecureConn interface {
	net.Conn

	// LocalPeer 返回本地节点 ID
	LocalPeer() types.NodeID

	// RemotePeer 返回远端节点 ID
	RemotePeer() types.NodeID
}
