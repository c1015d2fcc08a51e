package noise

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/flynn/noise"

	"github.com/dep2p/go-echo/pkg/types"
)

// maxHandshakeFrame 握手帧长度上限
const maxHandshakeFrame = 65535

// handshakeResult 握手产出
type handshakeResult struct {
	remotePeer types.NodeID
	enc        *noise.CipherState
	dec        *noise.CipherState
}

// runHandshake 执行 XX 模式三次消息握手
//
// 消息序列：发起方送 e；响应方回 e,ee,s,es 并附身份载荷；
// 发起方送 s,se 并附身份载荷。双方在第二、三条消息中互证身份。
func (t *Transport) runHandshake(ctx context.Context, conn net.Conn, initiator bool) (*handshakeResult, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Pattern:       noise.HandshakeXX,
		Initiator:     initiator,
		StaticKeypair: t.staticKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	payload := marshalPayload(&identityPayload{
		IdentityKey: t.identity.PublicKey(),
		Signature:   signStaticKey(t.identity.PrivateKey(), t.staticKey.Public),
	})

	if initiator {
		return t.handshakeInitiator(conn, hs, payload)
	}
	return t.handshakeResponder(conn, hs, payload)
}

// handshakeInitiator 发起方流程
func (t *Transport) handshakeInitiator(conn net.Conn, hs *noise.HandshakeState, payload []byte) (*handshakeResult, error) {
	// -> e
	msg, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if err := writeHandshakeFrame(conn, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	// <- e, ee, s, es + 对端身份载荷
	frame, err := readHandshakeFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	remotePayload, _, _, err := hs.ReadMessage(nil, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	remotePeer, err := verifyRemotePayload(remotePayload, hs.PeerStatic())
	if err != nil {
		return nil, err
	}

	// -> s, se + 本端身份载荷
	msg, cs1, cs2, err := hs.WriteMessage(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if err := writeHandshakeFrame(conn, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	// 发起方使用 cs1 发送、cs2 接收
	return &handshakeResult{remotePeer: remotePeer, enc: cs1, dec: cs2}, nil
}

// handshakeResponder 响应方流程
func (t *Transport) handshakeResponder(conn net.Conn, hs *noise.HandshakeState, payload []byte) (*handshakeResult, error) {
	// <- e
	frame, err := readHandshakeFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if _, _, _, err := hs.ReadMessage(nil, frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	// -> e, ee, s, es + 本端身份载荷
	msg, _, _, err := hs.WriteMessage(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if err := writeHandshakeFrame(conn, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	// <- s, se + 对端身份载荷
	frame, err = readHandshakeFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	remotePayload, cs1, cs2, err := hs.ReadMessage(nil, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	remotePeer, err := verifyRemotePayload(remotePayload, hs.PeerStatic())
	if err != nil {
		return nil, err
	}

	// 响应方使用 cs2 发送、cs1 接收
	return &handshakeResult{remotePeer: remotePeer, enc: cs2, dec: cs1}, nil
}

// verifyRemotePayload 校验对端载荷并推导节点 ID
func verifyRemotePayload(data []byte, peerStatic []byte) (types.NodeID, error) {
	payload, err := unmarshalPayload(data)
	if err != nil {
		return "", err
	}
	if err := verifyStaticKey(payload, peerStatic); err != nil {
		return "", err
	}
	return types.NodeIDFromPublicKey(payload.IdentityKey)
}

// writeHandshakeFrame 写入带 2 字节长度前缀的握手帧
func writeHandshakeFrame(w io.Writer, msg []byte) error {
	if len(msg) > maxHandshakeFrame {
		return ErrMessageTooLarge
	}
	frame := make([]byte, 2+len(msg))
	binary.BigEndian.PutUint16(frame, uint16(len(msg)))
	copy(frame[2:], msg)
	_, err := w.Write(frame)
	return err
}

// readHandshakeFrame 读取握手帧
func readHandshakeFrame(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	frame := make([]byte, n)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}
