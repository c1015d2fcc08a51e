// Package multiaddr 实现自描述的结构化网络地址
//
// 地址由 (协议标签, 值) 组件序列构成，文本形式如：
//
//	/ip4/127.0.0.1/tcp/10333
//	/dns4/example.com/tcp/443
//
// 解析是纯函数：非法输入返回错误，不产生任何副作用。
// 解析后的地址不可变，格式化再解析得到相等的地址。
package multiaddr

import (
	"bytes"
	"fmt"
)

// Multiaddr 是自描述的网络地址接口
type Multiaddr interface {
	// Bytes 返回二进制表示（不要修改返回的字节，可能是共享的）
	Bytes() []byte

	// String 返回字符串表示
	String() string

	// Equal 判断两个地址是否相等
	Equal(Multiaddr) bool

	// Protocols 返回地址包含的协议列表
	Protocols() []Protocol

	// ValueForProtocol 获取指定协议代码的值
	ValueForProtocol(code int) (string, error)
}

// multiaddr 是 Multiaddr 接口的实现
type multiaddr struct {
	bytes []byte
}

var _ Multiaddr = (*multiaddr)(nil)

// NewMultiaddr 从字符串创建多地址
func NewMultiaddr(s string) (Multiaddr, error) {
	b, err := stringToBytes(s)
	if err != nil {
		return nil, err
	}
	return &multiaddr{bytes: b}, nil
}

// NewMultiaddrBytes 从字节创建多地址
func NewMultiaddrBytes(b []byte) (Multiaddr, error) {
	if err := validateBytes(b); err != nil {
		return nil, err
	}
	// 复制一份避免外部修改
	buf := make([]byte, len(b))
	copy(buf, b)
	return &multiaddr{bytes: buf}, nil
}

// Bytes 返回二进制表示
func (m *multiaddr) Bytes() []byte {
	return m.bytes
}

// String 返回字符串表示
func (m *multiaddr) String() string {
	s, err := bytesToString(m.bytes)
	if err != nil {
		// 构造时已验证，不应该发生
		panic(fmt.Errorf("multiaddr failed to convert to string: %w", err))
	}
	return s
}

// Equal 判断两个地址是否相等
func (m *multiaddr) Equal(other Multiaddr) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(m.bytes, other.Bytes())
}

// Protocols 返回地址包含的协议列表
func (m *multiaddr) Protocols() []Protocol {
	var out []Protocol
	b := m.bytes
	for len(b) > 0 {
		p, _, rest, err := readComponent(b)
		if err != nil {
			// 构造时已验证，不应该发生
			panic(err)
		}
		out = append(out, p)
		b = rest
	}
	return out
}

// ValueForProtocol 获取指定协议代码的值
func (m *multiaddr) ValueForProtocol(code int) (string, error) {
	b := m.bytes
	for len(b) > 0 {
		p, payload, rest, err := readComponent(b)
		if err != nil {
			panic(err)
		}
		if p.Code == code {
			if p.Size == 0 {
				return "", nil
			}
			return p.Transcoder.BytesToString(payload)
		}
		b = rest
	}
	return "", fmt.Errorf("%w: code 0x%x", ErrNoMatch, code)
}
