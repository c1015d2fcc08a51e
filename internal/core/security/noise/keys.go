package noise

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/flynn/noise"
)

// staticKeyFromIdentity 从 ed25519 身份推导 Noise 静态密钥对
//
// 私钥取种子的 SHA-512 前 32 字节并做标准钳位，
// 公钥通过 Edwards 到 Montgomery 的双有理映射得到，
// 两者构成同一条曲线上一致的 X25519 密钥对。
func staticKeyFromIdentity(priv ed25519.PrivateKey) (noise.DHKey, error) {
	h := sha512.Sum512(priv.Seed())
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	privKey := make([]byte, 32)
	copy(privKey, h[:32])

	pubKey, err := curvePublicFromEd(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return noise.DHKey{}, err
	}

	return noise.DHKey{Private: privKey, Public: pubKey}, nil
}

// curvePublicFromEd 将 ed25519 公钥映射为 curve25519 公钥
func curvePublicFromEd(pub ed25519.PublicKey) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return nil, fmt.Errorf("convert public key: %w", err)
	}
	return p.BytesMontgomery(), nil
}
