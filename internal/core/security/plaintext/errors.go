package plaintext

import "errors"

var (
	// ErrPeerMismatch 对端身份与期望不符
	ErrPeerMismatch = errors.New("peer id mismatch")

	// ErrBadKeyFrame 公钥帧格式非法
	ErrBadKeyFrame = errors.New("bad key frame")
)
