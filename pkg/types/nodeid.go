package types

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58"
)

// NodeID 节点标识
//
// 由 Ed25519 身份公钥的 SHA-256 摘要经 base58 编码得到。
// 空字符串表示"未知节点"（入站连接握手完成前的状态）。
type NodeID string

// ErrInvalidNodeID 无效的节点 ID
var ErrInvalidNodeID = errors.New("invalid node id")

// NodeIDFromPublicKey 从 Ed25519 公钥派生节点 ID
func NodeIDFromPublicKey(pub ed25519.PublicKey) (NodeID, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", ErrInvalidNodeID
	}
	sum := sha256.Sum256(pub)
	return NodeID(base58.Encode(sum[:])), nil
}

// String 返回字符串表示
func (id NodeID) String() string {
	return string(id)
}

// ShortString 返回截断表示（用于日志）
func (id NodeID) ShortString() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Validate 检查节点 ID 是否为合法的 base58 编码摘要
func (id NodeID) Validate() error {
	if id == "" {
		return ErrInvalidNodeID
	}
	raw, err := base58.Decode(string(id))
	if err != nil {
		return ErrInvalidNodeID
	}
	if len(raw) != sha256.Size {
		return ErrInvalidNodeID
	}
	return nil
}
