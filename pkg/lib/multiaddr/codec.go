package multiaddr

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/multiformats/go-varint"
)

// stringToBytes 将文本地址编码为二进制表示
func stringToBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrEmptyAddress
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	// 去掉末尾的 /，再按 / 切分；首元素为空串
	s = strings.TrimRight(s, "/")
	parts := strings.Split(s, "/")[1:]
	if len(parts) == 0 || parts[0] == "" {
		return nil, ErrEmptyAddress
	}

	var buf bytes.Buffer
	for i := 0; i < len(parts); i++ {
		name := parts[i]
		p := ProtocolWithName(name)
		if p.Code == 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
		}
		buf.Write(p.VCode)

		if p.Size == 0 {
			continue
		}

		i++
		if i >= len(parts) {
			return nil, fmt.Errorf("%w: %q", ErrMissingValue, name)
		}

		val, err := p.Transcoder.StringToBytes(parts[i])
		if err != nil {
			return nil, err
		}
		if p.Size == LengthPrefixedVarSize {
			buf.Write(varint.ToUvarint(uint64(len(val))))
		}
		buf.Write(val)
	}

	return buf.Bytes(), nil
}

// bytesToString 将二进制表示解码为文本地址
func bytesToString(b []byte) (string, error) {
	if len(b) == 0 {
		return "", ErrEmptyAddress
	}

	var sb strings.Builder
	for len(b) > 0 {
		p, payload, rest, err := readComponent(b)
		if err != nil {
			return "", err
		}
		b = rest

		sb.WriteByte('/')
		sb.WriteString(p.Name)

		if p.Size == 0 {
			continue
		}
		val, err := p.Transcoder.BytesToString(payload)
		if err != nil {
			return "", err
		}
		sb.WriteByte('/')
		sb.WriteString(val)
	}

	return sb.String(), nil
}

// validateBytes 校验二进制表示的结构完整性
func validateBytes(b []byte) error {
	if len(b) == 0 {
		return ErrEmptyAddress
	}
	for len(b) > 0 {
		p, payload, rest, err := readComponent(b)
		if err != nil {
			return err
		}
		if p.Size != 0 {
			if _, err := p.Transcoder.BytesToString(payload); err != nil {
				return err
			}
		}
		b = rest
	}
	return nil
}

// readComponent 读取一个 (协议, 数据) 组件，返回剩余字节
func readComponent(b []byte) (Protocol, []byte, []byte, error) {
	code, n, err := varint.FromUvarint(b)
	if err != nil {
		return Protocol{}, nil, nil, fmt.Errorf("%w: bad protocol code: %v", ErrInvalidValue, err)
	}
	b = b[n:]

	p := ProtocolWithCode(int(code))
	if p.Code == 0 {
		return Protocol{}, nil, nil, fmt.Errorf("%w: code 0x%x", ErrUnknownProtocol, code)
	}

	size := p.Size / 8
	if p.Size == LengthPrefixedVarSize {
		l, n, err := varint.FromUvarint(b)
		if err != nil {
			return Protocol{}, nil, nil, fmt.Errorf("%w: bad length prefix: %v", ErrInvalidValue, err)
		}
		b = b[n:]
		size = int(l)
	}

	if len(b) < size {
		return Protocol{}, nil, nil, fmt.Errorf("%w: truncated %s component", ErrInvalidValue, p.Name)
	}

	return p, b[:size], b[size:], nil
}
