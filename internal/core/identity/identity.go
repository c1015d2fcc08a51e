// Package identity 管理节点身份密钥
//
// 身份是一对 Ed25519 密钥，节点 ID 由公钥派生。
// 密钥可以从文件加载（32 字节种子）或随机生成。
// 加载失败是启动期致命错误，与运行期的单连接错误不同。
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/dep2p/go-echo/pkg/types"
)

// SeedSize 身份密钥种子长度（字节）
const SeedSize = ed25519.SeedSize

// Identity 节点身份
type Identity struct {
	priv   ed25519.PrivateKey
	nodeID types.NodeID
}

// Generate 随机生成身份
func Generate() (*Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}
	return fromPrivateKey(priv)
}

// FromSeed 从 32 字节种子构造身份
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed wants %d bytes, got %d", ErrInvalidKeyMaterial, SeedSize, len(seed))
	}
	return fromPrivateKey(ed25519.NewKeyFromSeed(seed))
}

// Load 从文件加载身份（文件内容为 32 字节种子）
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity file %s: %w", path, err)
	}
	id, err := FromSeed(data)
	if err != nil {
		return nil, fmt.Errorf("identity file %s: %w", path, err)
	}
	return id, nil
}

// Save 将身份种子写入文件（0600 权限）
func (id *Identity) Save(path string) error {
	return os.WriteFile(path, id.priv.Seed(), 0600)
}

func fromPrivateKey(priv ed25519.PrivateKey) (*Identity, error) {
	nodeID, err := types.NodeIDFromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Identity{priv: priv, nodeID: nodeID}, nil
}

// NodeID 返回节点 ID
func (id *Identity) NodeID() types.NodeID {
	return id.nodeID
}

// PublicKey 返回 Ed25519 公钥
func (id *Identity) PublicKey() ed25519.PublicKey {
	return id.priv.Public().(ed25519.PublicKey)
}

// PrivateKey 返回 Ed25519 私钥
func (id *Identity) PrivateKey() ed25519.PrivateKey {
	return id.priv
}

// Sign 用身份私钥签名
func (id *Identity) Sign(msg []byte) []byte {
	return ed25519.Sign(id.priv, msg)
}
