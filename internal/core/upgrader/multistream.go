package upgrader

import (
	"fmt"
	"io"

	mss "github.com/multiformats/go-multistream"
)

// negotiateInbound 以监听方角色协商协议
//
// 对端逐个提议，命中候选集中的第一个提议即选定。
func negotiateInbound(rwc io.ReadWriteCloser, candidates []string) (string, error) {
	muxer := mss.NewMultistreamMuxer[string]()
	for _, proto := range candidates {
		muxer.AddHandler(proto, nil)
	}

	proto, _, err := muxer.Negotiate(rwc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNegotiation, err)
	}
	return proto, nil
}

// negotiateOutbound 以拨号方角色协商协议
//
// 按候选顺序提议，返回对端接受的第一个。
func negotiateOutbound(rwc io.ReadWriteCloser, candidates []string) (string, error) {
	proto, err := mss.SelectOneOf(candidates, rwc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNegotiation, err)
	}
	return proto, nil
}
