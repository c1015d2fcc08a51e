package noise

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/flynn/noise"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/types"
)

const (
	// maxFrame 密文帧长度上限
	maxFrame = 65535

	// maxPlaintext 单帧明文上限（预留 16 字节认证标签）
	maxPlaintext = maxFrame - 16
)

// ============================================================================
//                              secureConn 实现
// ============================================================================

// secureConn Noise 加密连接
//
// 每帧为 2 字节大端密文长度加 AEAD 密文。
// 读写各持独立的 CipherState 与锁，全双工使用安全。
type secureConn struct {
	net.Conn

	localPeer  types.NodeID
	remotePeer types.NodeID

	writeMu sync.Mutex
	enc     *noise.CipherState

	readMu  sync.Mutex
	dec     *noise.CipherState
	readBuf []byte
}

var _ interfaces.SecureConn = (*secureConn)(nil)

// newSecureConn 包装握手完成的连接
func newSecureConn(conn net.Conn, localPeer types.NodeID, result *handshakeResult) *secureConn {
	return &secureConn{
		Conn:       conn,
		localPeer:  localPeer,
		remotePeer: result.remotePeer,
		enc:        result.enc,
		dec:        result.dec,
	}
}

// LocalPeer 本地节点 ID
func (c *secureConn) LocalPeer() types.NodeID {
	return c.localPeer
}

// RemotePeer 对端节点 ID
func (c *secureConn) RemotePeer() types.NodeID {
	return c.remotePeer
}

// Read 读取并解密数据
//
// 上一帧的剩余明文先行返回，之后才读取下一帧。
// 对端发来的空帧被跳过，绝不向调用方返回 (0, nil)。
func (c *secureConn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if len(c.readBuf) > 0 {
		n := copy(p, c.readBuf)
		c.readBuf = c.readBuf[n:]
		return n, nil
	}

	for {
		var lenBuf [2]byte
		if _, err := io.ReadFull(c.Conn, lenBuf[:]); err != nil {
			return 0, err
		}
		frameLen := binary.BigEndian.Uint16(lenBuf[:])

		ciphertext := make([]byte, frameLen)
		if _, err := io.ReadFull(c.Conn, ciphertext); err != nil {
			return 0, err
		}

		plaintext, err := c.dec.Decrypt(nil, nil, ciphertext)
		if err != nil {
			return 0, fmt.Errorf("decrypt frame: %w", err)
		}
		if len(plaintext) == 0 {
			continue
		}

		n := copy(p, plaintext)
		c.readBuf = plaintext[n:]
		return n, nil
	}
}

// Write 加密并写入数据
//
// 超过单帧上限的数据切成多帧发送。
func (c *secureConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	total := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > maxPlaintext {
			chunk = chunk[:maxPlaintext]
		}

		ciphertext, err := c.enc.Encrypt(nil, nil, chunk)
		if err != nil {
			return total, fmt.Errorf("encrypt frame: %w", err)
		}

		frame := make([]byte, 2+len(ciphertext))
		binary.BigEndian.PutUint16(frame, uint16(len(ciphertext)))
		copy(frame[2:], ciphertext)

		if _, err := c.Conn.Write(frame); err != nil {
			return total, err
		}

		total += len(chunk)
		p = p[len(chunk):]
	}
	return total, nil
}
