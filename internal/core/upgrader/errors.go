package upgrader

import "errors"

var (
	// ErrNegotiation 协议协商失败
	ErrNegotiation = errors.New("protocol negotiation failed")

	// ErrNoSecurity 没有注册任何安全传输
	ErrNoSecurity = errors.New("no security transport registered")

	// ErrNoMuxer 没有注册任何多路复用器
	ErrNoMuxer = errors.New("no muxer registered")

	// ErrDirectionUnknown 升级方向未指定
	ErrDirectionUnknown = errors.New("connection direction unknown")
)
