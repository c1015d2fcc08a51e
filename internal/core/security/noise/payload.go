package noise

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
)

// payloadSigPrefix 静态密钥签名的域分隔前缀
const payloadSigPrefix = "echo-noise-static-key:"

// identityPayload 握手中传递的身份证明
//
// 载荷把 Noise 静态密钥绑定到 ed25519 身份：
// 签名覆盖前缀加本端静态公钥，防止静态密钥被移花接木。
type identityPayload struct {
	IdentityKey ed25519.PublicKey
	Signature   []byte
}

// marshalPayload 编码身份载荷
//
// 线格式为两段 2 字节大端长度前缀的字段：身份公钥、签名。
func marshalPayload(p *identityPayload) []byte {
	buf := make([]byte, 0, 4+len(p.IdentityKey)+len(p.Signature))
	buf = appendField(buf, p.IdentityKey)
	buf = appendField(buf, p.Signature)
	return buf
}

// unmarshalPayload 解码身份载荷
func unmarshalPayload(data []byte) (*identityPayload, error) {
	key, rest, err := readField(data)
	if err != nil {
		return nil, err
	}
	sig, rest, err := readField(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrBadPayload)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: identity key length %d", ErrBadPayload, len(key))
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: signature length %d", ErrBadPayload, len(sig))
	}
	return &identityPayload{IdentityKey: key, Signature: sig}, nil
}

// signStaticKey 对静态公钥签名
func signStaticKey(priv ed25519.PrivateKey, staticPub []byte) []byte {
	msg := append([]byte(payloadSigPrefix), staticPub...)
	return ed25519.Sign(priv, msg)
}

// verifyStaticKey 校验载荷对静态公钥的绑定
func verifyStaticKey(p *identityPayload, staticPub []byte) error {
	msg := append([]byte(payloadSigPrefix), staticPub...)
	if !ed25519.Verify(p.IdentityKey, msg, p.Signature) {
		return fmt.Errorf("%w: signature verification failed", ErrBadPayload)
	}
	return nil
}

func appendField(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(field)))
	return append(buf, field...)
}

func readField(data []byte) (field, rest []byte, err error) {
	if len(data) < 2 {
		return nil, nil, fmt.Errorf("%w: truncated field", ErrBadPayload)
	}
	n := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+n {
		return nil, nil, fmt.Errorf("%w: truncated field", ErrBadPayload)
	}
	return data[2 : 2+n], data[2+n:], nil
}
