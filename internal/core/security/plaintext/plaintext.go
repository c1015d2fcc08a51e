// Package plaintext 提供不加密的安全层实现
//
// 握手仅交换双方的公钥以确定节点身份，之后的数据原样传输。
// 仅用于测试和不要求机密性的部署环境。
package plaintext

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dep2p/go-echo/internal/core/identity"
	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/types"
)

var logger = log.Logger("core/security/plaintext")

// ProtocolID 明文安全协议标识
const ProtocolID types.ProtocolID = "/plaintext/1.0.0"

// maxKeyFrame 公钥帧长度上限
const maxKeyFrame = 1024

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport 明文安全传输
type Transport struct {
	identity *identity.Identity
}

// 确保实现接口
var _ interfaces.SecureTransport = (*Transport)(nil)

// New 创建明文安全传输
func New(id *identity.Identity) *Transport {
	return &Transport{identity: id}
}

// ID 返回协议标识
func (t *Transport) ID() types.ProtocolID {
	return ProtocolID
}

// SecureInbound 处理入站握手
func (t *Transport) SecureInbound(ctx context.Context, conn net.Conn) (interfaces.SecureConn, error) {
	return t.handshake(ctx, conn, "")
}

// SecureOutbound 处理出站握手
//
// remotePeer 非空时校验对端身份是否匹配。
func (t *Transport) SecureOutbound(ctx context.Context, conn net.Conn, remotePeer types.NodeID) (interfaces.SecureConn, error) {
	return t.handshake(ctx, conn, remotePeer)
}

// handshake 交换公钥并推导对端节点 ID
func (t *Transport) handshake(ctx context.Context, conn net.Conn, expected types.NodeID) (interfaces.SecureConn, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	// 双方各自先发后收，避免死锁依赖角色
	errCh := make(chan error, 1)
	go func() {
		errCh <- writeKeyFrame(conn, t.identity.PublicKey())
	}()

	remotePub, err := readKeyFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("plaintext handshake: %w", err)
	}
	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("plaintext handshake: %w", err)
	}

	remoteID, err := types.NodeIDFromPublicKey(remotePub)
	if err != nil {
		return nil, fmt.Errorf("plaintext handshake: %w", err)
	}

	if expected != "" && remoteID != expected {
		return nil, fmt.Errorf("plaintext handshake: %w: got %s want %s",
			ErrPeerMismatch, remoteID.ShortString(), expected.ShortString())
	}

	logger.Debug("明文握手完成", "remote", remoteID.ShortString())
	return &secureConn{
		Conn:       conn,
		localPeer:  t.identity.NodeID(),
		remotePeer: remoteID,
	}, nil
}

// ============================================================================
//                              公钥帧
// ============================================================================

// writeKeyFrame 写入带 2 字节长度前缀的公钥
func writeKeyFrame(w io.Writer, pub ed25519.PublicKey) error {
	frame := make([]byte, 2+len(pub))
	binary.BigEndian.PutUint16(frame, uint16(len(pub)))
	copy(frame[2:], pub)
	_, err := w.Write(frame)
	return err
}

// readKeyFrame 读取对端公钥
func readKeyFrame(r io.Reader) (ed25519.PublicKey, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	if n == 0 || n > maxKeyFrame {
		return nil, fmt.Errorf("%w: key frame length %d", ErrBadKeyFrame, n)
	}
	pub := make([]byte, n)
	if _, err := io.ReadFull(r, pub); err != nil {
		return nil, err
	}
	return pub, nil
}

// ============================================================================
//                              secureConn 实现
// ============================================================================

// secureConn 明文连接，读写直通底层连接
type secureConn struct {
	net.Conn

	localPeer  types.NodeID
	remotePeer types.NodeID
}

var _ interfaces.SecureConn = (*secureConn)(nil)

// LocalPeer 本地节点 ID
func (c *secureConn) LocalPeer() types.NodeID {
	return c.localPeer
}

// RemotePeer 对端节点 ID
func (c *secureConn) RemotePeer() types.NodeID {
	return c.remotePeer
}
