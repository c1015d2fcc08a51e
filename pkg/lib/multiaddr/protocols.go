package multiaddr

import "github.com/multiformats/go-varint"

// Protocol 描述一个 multiaddr 协议
type Protocol struct {
	// Name 协议名称（如 "ip4", "tcp"）
	Name string

	// Code 协议代码
	Code int

	// VCode 预计算的 varint 编码
	VCode []byte

	// Size 协议数据大小（位）
	// 0 表示无数据，-1 表示变长（varint 长度前缀）
	Size int

	// Transcoder 编解码器
	Transcoder Transcoder
}

// String 返回协议名称
func (p Protocol) String() string {
	return p.Name
}

// LengthPrefixedVarSize 表示变长数据（使用 varint 前缀）
const LengthPrefixedVarSize = -1

// 协议代码常量（与 multiformats/multicodec 对齐）
// 参考：https://github.com/multiformats/multicodec/blob/master/table.csv
const (
	P_IP4  = 0x0004
	P_TCP  = 0x0006
	P_IP6  = 0x0029
	P_DNS4 = 0x0036
)

func codeToVarint(code int) []byte {
	return varint.ToUvarint(uint64(code))
}

var (
	protoIP4 = Protocol{
		Name:       "ip4",
		Code:       P_IP4,
		VCode:      codeToVarint(P_IP4),
		Size:       32,
		Transcoder: TranscoderIP4,
	}

	protoTCP = Protocol{
		Name:       "tcp",
		Code:       P_TCP,
		VCode:      codeToVarint(P_TCP),
		Size:       16,
		Transcoder: TranscoderPort,
	}

	protoIP6 = Protocol{
		Name:       "ip6",
		Code:       P_IP6,
		VCode:      codeToVarint(P_IP6),
		Size:       128,
		Transcoder: TranscoderIP6,
	}

	protoDNS4 = Protocol{
		Name:       "dns4",
		Code:       P_DNS4,
		VCode:      codeToVarint(P_DNS4),
		Size:       LengthPrefixedVarSize,
		Transcoder: TranscoderDNS,
	}
)

// protocols 支持的协议表
var protocols = []Protocol{
	protoIP4,
	protoIP6,
	protoTCP,
	protoDNS4,
}

var (
	protocolsByName = map[string]Protocol{}
	protocolsByCode = map[int]Protocol{}
)

func init() {
	for _, p := range protocols {
		protocolsByName[p.Name] = p
		protocolsByCode[p.Code] = p
	}
}

// ProtocolWithName 按名称查找协议，不存在时返回零值
func ProtocolWithName(name string) Protocol {
	return protocolsByName[name]
}

// ProtocolWithCode 按代码查找协议，不存在时返回零值
func ProtocolWithCode(code int) Protocol {
	return protocolsByCode[code]
}
