// Package types 定义 go-echo 公共基础类型
//
// 本包是依赖图的叶子节点，只依赖标准库和编码辅助库，
// 供 pkg/interfaces 和 internal/core 各模块共享。
package types

// ProtocolID 协议标识符
//
// 采用路径风格的字符串，如 "/echo/1.0.0"、"/noise/1.0.0"。
// 协议协商（multistream-select）按字符串精确匹配。
type ProtocolID string

// String 返回字符串表示
func (p ProtocolID) String() string {
	return string(p)
}

// Direction 连接方向
type Direction int

const (
	// DirUnknown 未知方向
	DirUnknown Direction = iota

	// DirInbound 入站连接（对端发起）
	DirInbound

	// DirOutbound 出站连接（本地发起）
	DirOutbound
)

// String 返回方向的字符串表示
func (d Direction) String() string {
	switch d {
	case DirInbound:
		return "inbound"
	case DirOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}
