package protocol

import "errors"

var (
	// ErrNegotiation 流协议协商失败
	ErrNegotiation = errors.New("stream protocol negotiation failed")

	// ErrNotRegistered 协议未注册
	ErrNotRegistered = errors.New("protocol not registered")

	// ErrAlreadyRegistered 协议重复注册
	ErrAlreadyRegistered = errors.New("protocol already registered")
)
