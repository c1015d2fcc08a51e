package echo

import "errors"

var (
	// ErrFrameTooLarge 消息超出单帧上限
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrTruncatedFrame 帧在长度前缀之后被截断
	ErrTruncatedFrame = errors.New("truncated frame")
)
