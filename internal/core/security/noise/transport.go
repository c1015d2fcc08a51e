// Package noise 提供基于 Noise XX 的安全层实现
//
// 使用 ChaCha20-Poly1305 加 SHA-256 的密码套件完成双向认证握手，
// 握手载荷携带 ed25519 身份证明，会话数据按帧加密传输。
package noise

import (
	"context"
	"fmt"
	"net"

	"github.com/flynn/noise"

	"github.com/dep2p/go-echo/internal/core/identity"
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/types"
)

var logger = log.Logger("core/security/noise")

// ProtocolID Noise 安全协议标识
const ProtocolID types.ProtocolID = "/noise"

// cipherSuite 固定密码套件：X25519 + ChaCha20-Poly1305 + SHA-256
var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport Noise 安全传输
type Transport struct {
	identity  *identity.Identity
	staticKey noise.DHKey
}

// 确保实现接口
var _ interfaces.SecureTransport = (*Transport)(nil)

// New 创建 Noise 安全传输
//
// 静态密钥从 ed25519 身份确定性推导，同一身份的静态密钥跨连接一致。
func New(id *identity.Identity) (*Transport, error) {
	staticKey, err := staticKeyFromIdentity(id.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("derive static key: %w", err)
	}
	return &Transport{
		identity:  id,
		staticKey: staticKey,
	}, nil
}

// ID 返回协议标识
func (t *Transport) ID() types.ProtocolID {
	return ProtocolID
}

// SecureInbound 以响应方角色完成握手
func (t *Transport) SecureInbound(ctx context.Context, conn net.Conn) (interfaces.SecureConn, error) {
	return t.secure(ctx, conn, false, "")
}

// SecureOutbound 以发起方角色完成握手
//
// remotePeer 非空时校验对端身份是否匹配。
func (t *Transport) SecureOutbound(ctx context.Context, conn net.Conn, remotePeer types.NodeID) (interfaces.SecureConn, error) {
	return t.secure(ctx, conn, true, remotePeer)
}

// secure 执行握手并包装为加密连接
func (t *Transport) secure(ctx context.Context, conn net.Conn, initiator bool, expected types.NodeID) (interfaces.SecureConn, error) {
	result, err := t.runHandshake(ctx, conn, initiator)
	if err != nil {
		return nil, err
	}

	if expected != "" && result.remotePeer != expected {
		return nil, fmt.Errorf("%w: got %s want %s",
			ErrPeerMismatch, result.remotePeer.ShortString(), expected.ShortString())
	}

	logger.Debug("Noise 握手完成",
		"initiator", initiator,
		"remote", result.remotePeer.ShortString())

	return newSecureConn(conn, t.identity.NodeID(), result), nil
}
