package multiaddr

import "errors"

var (
	// ErrEmptyAddress 地址为空
	ErrEmptyAddress = errors.New("multiaddr: empty address")

	// ErrInvalidFormat 地址格式错误（必须以 / 开头）
	ErrInvalidFormat = errors.New("multiaddr: address must begin with /")

	// ErrUnknownProtocol 未知协议标签
	ErrUnknownProtocol = errors.New("multiaddr: unknown protocol")

	// ErrMissingValue 协议缺少值部分
	ErrMissingValue = errors.New("multiaddr: protocol requires a value")

	// ErrInvalidValue 协议值非法（如端口超出范围、IP 字面量格式错误）
	ErrInvalidValue = errors.New("multiaddr: invalid protocol value")

	// ErrNoMatch 地址中不包含指定协议
	ErrNoMatch = errors.New("multiaddr: protocol not found in address")
)
