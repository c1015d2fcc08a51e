package noise

import "errors"

var (
	// ErrHandshake 握手失败
	ErrHandshake = errors.New("noise handshake failed")

	// ErrPeerMismatch 对端身份与期望不符
	ErrPeerMismatch = errors.New("peer id mismatch")

	// ErrBadPayload 身份载荷格式非法或签名校验失败
	ErrBadPayload = errors.New("bad identity payload")

	// ErrMessageTooLarge 消息超出单帧上限
	ErrMessageTooLarge = errors.New("message exceeds frame limit")
)
