package tcp

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-echo/pkg/lib/multiaddr"
)

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")

	// ErrUnsupportedAddress 传输不支持该地址（地址族或协议组合）
	//
	// 可恢复错误：调用方可以换一个地址重试，绝不引发崩溃。
	ErrUnsupportedAddress = errors.New("unsupported address")
)

// UnsupportedAddressError 携带被拒绝的原始地址
//
// errors.Is(err, ErrUnsupportedAddress) 成立，
// 调用方可通过 Addr 取回地址换址重试。
type UnsupportedAddressError struct {
	Addr multiaddr.Multiaddr
}

func (e *UnsupportedAddressError) Error() string {
	return fmt.Sprintf("unsupported address: %s", e.Addr)
}

func (e *UnsupportedAddressError) Unwrap() error {
	return ErrUnsupportedAddress
}
