package multiaddr

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Transcoder 协议值的字符串/字节编解码器
type Transcoder interface {
	// StringToBytes 将文本值编码为二进制
	StringToBytes(s string) ([]byte, error)

	// BytesToString 将二进制值解码为文本
	BytesToString(b []byte) (string, error)
}

// transcoderFns 用函数对构造 Transcoder
type transcoderFns struct {
	s2b func(string) ([]byte, error)
	b2s func([]byte) (string, error)
}

func (t transcoderFns) StringToBytes(s string) ([]byte, error) { return t.s2b(s) }
func (t transcoderFns) BytesToString(b []byte) (string, error) { return t.b2s(b) }

// TranscoderIP4 IPv4 地址编解码
var TranscoderIP4 Transcoder = transcoderFns{
	s2b: func(s string) ([]byte, error) {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("%w: malformed ip4 %q", ErrInvalidValue, s)
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, fmt.Errorf("%w: %q is not an ip4 address", ErrInvalidValue, s)
		}
		return ip4, nil
	},
	b2s: func(b []byte) (string, error) {
		if len(b) != 4 {
			return "", fmt.Errorf("%w: ip4 wants 4 bytes, got %d", ErrInvalidValue, len(b))
		}
		return net.IP(b).String(), nil
	},
}

// TranscoderIP6 IPv6 地址编解码
var TranscoderIP6 Transcoder = transcoderFns{
	s2b: func(s string) ([]byte, error) {
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() != nil {
			return nil, fmt.Errorf("%w: malformed ip6 %q", ErrInvalidValue, s)
		}
		return ip.To16(), nil
	},
	b2s: func(b []byte) (string, error) {
		if len(b) != 16 {
			return "", fmt.Errorf("%w: ip6 wants 16 bytes, got %d", ErrInvalidValue, len(b))
		}
		return net.IP(b).String(), nil
	},
}

// TranscoderPort 端口编解码（2 字节大端）
var TranscoderPort Transcoder = transcoderFns{
	s2b: func(s string) ([]byte, error) {
		port, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed port %q", ErrInvalidValue, s)
		}
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(port))
		return b, nil
	},
	b2s: func(b []byte) (string, error) {
		if len(b) != 2 {
			return "", fmt.Errorf("%w: port wants 2 bytes, got %d", ErrInvalidValue, len(b))
		}
		return strconv.FormatUint(uint64(binary.BigEndian.Uint16(b)), 10), nil
	},
}

// TranscoderDNS 域名编解码（变长）
var TranscoderDNS Transcoder = transcoderFns{
	s2b: func(s string) ([]byte, error) {
		if s == "" || strings.ContainsRune(s, '/') {
			return nil, fmt.Errorf("%w: malformed dns name %q", ErrInvalidValue, s)
		}
		return []byte(s), nil
	},
	b2s: func(b []byte) (string, error) {
		if len(b) == 0 || strings.ContainsRune(string(b), '/') {
			return "", fmt.Errorf("%w: malformed dns name", ErrInvalidValue)
		}
		return string(b), nil
	},
}
