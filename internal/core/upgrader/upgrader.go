// Package upgrader 将原始连接升级为带认证的多路复用连接
//
// 升级分两步：先在原始连接上协商并完成安全握手，
// 再在加密通道上协商多路复用协议并建立会话。
// 两步的协商方向都由连接方向决定：拨号方提议，监听方应答。
package upgrader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dep2p/go-echo/pkg/interfaces"
	"github.com/dep2p/go-echo/pkg/lib/log"
	"github.com/dep2p/go-echo/pkg/types"
)

var logger = log.Logger("core/upgrader")

// defaultNegotiateTimeout 整个升级流程的兜底超时
const defaultNegotiateTimeout = 60 * time.Second

// securityRank 安全协议的强度排名，越小越优先
var securityRank = map[types.ProtocolID]int{
	"/noise":           0,
	"/plaintext/1.0.0": 1,
}

// SelectSecurity 按强度从高到低排列安全协议
//
// 已知协议按强度排名，未知协议保持注册顺序排在已知协议之后。
// 拨号方按该顺序提议，保证双方都支持加密时绝不落到明文。
func SelectSecurity(ids []types.ProtocolID) []types.ProtocolID {
	ordered := make([]types.ProtocolID, len(ids))
	copy(ordered, ids)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, iKnown := securityRank[ordered[i]]
		rj, jKnown := securityRank[ordered[j]]
		if iKnown && jKnown {
			return ri < rj
		}
		return iKnown && !jKnown
	})
	return ordered
}

// ============================================================================
//                              Upgrader 实现
// ============================================================================

// Upgrader 连接升级器
type Upgrader struct {
	security  map[types.ProtocolID]interfaces.SecureTransport
	secOrder  []types.ProtocolID
	muxers    map[string]interfaces.MuxerFactory
	muxOrder  []string
	localPeer types.NodeID
}

// 确保实现接口
var _ interfaces.Upgrader = (*Upgrader)(nil)

// New 创建升级器
//
// 安全传输按强度重排后作为提议顺序，多路复用器保持注册顺序。
func New(localPeer types.NodeID, security []interfaces.SecureTransport, muxers []interfaces.MuxerFactory) (*Upgrader, error) {
	if len(security) == 0 {
		return nil, ErrNoSecurity
	}
	if len(muxers) == 0 {
		return nil, ErrNoMuxer
	}

	u := &Upgrader{
		security:  make(map[types.ProtocolID]interfaces.SecureTransport, len(security)),
		muxers:    make(map[string]interfaces.MuxerFactory, len(muxers)),
		localPeer: localPeer,
	}

	ids := make([]types.ProtocolID, 0, len(security))
	for _, s := range security {
		ids = append(ids, s.ID())
		u.security[s.ID()] = s
	}
	u.secOrder = SelectSecurity(ids)

	for _, m := range muxers {
		u.muxOrder = append(u.muxOrder, m.ID())
		u.muxers[m.ID()] = m
	}
	return u, nil
}

// Upgrade 升级原始连接
//
// 升级途中任何一步失败都会关闭底层连接，调用方无须再清理。
func (u *Upgrader) Upgrade(ctx context.Context, conn interfaces.RawConn, dir types.Direction, remotePeer types.NodeID) (interfaces.UpgradedConn, error) {
	if dir != types.DirInbound && dir != types.DirOutbound {
		_ = conn.Close()
		return nil, ErrDirectionUnknown
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultNegotiateTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	// ctx 取消时立刻打断协商中的读写，退出不依赖对端配合
	stopCancelWatch := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stopCancelWatch()

	secureConn, secID, err := u.setupSecurity(ctx, conn, dir, remotePeer)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("security setup: %w", err)
	}

	// 安全层握手收尾时会清掉连接期限，复用协商前重新施加
	_ = conn.SetDeadline(deadline)

	muxer, muxID, err := u.setupMuxer(secureConn, dir)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("muxer setup: %w", err)
	}

	// 协商完成后撤销兜底期限，交由会话自行管理超时
	stopCancelWatch()
	_ = conn.SetDeadline(time.Time{})

	logger.Debug("连接升级完成",
		"direction", dir.String(),
		"remote", secureConn.RemotePeer().ShortString(),
		"security", string(secID),
		"muxer", muxID)

	return &upgradedConn{
		Muxer:      muxer,
		localPeer:  u.localPeer,
		remotePeer: secureConn.RemotePeer(),
		remoteAddr: conn.RemoteMultiaddr(),
		security:   secID,
		muxerID:    muxID,
	}, nil
}

// setupSecurity 协商并执行安全握手
func (u *Upgrader) setupSecurity(ctx context.Context, conn interfaces.RawConn, dir types.Direction, remotePeer types.NodeID) (interfaces.SecureConn, types.ProtocolID, error) {
	candidates := make([]string, len(u.secOrder))
	for i, id := range u.secOrder {
		candidates[i] = string(id)
	}

	var chosen string
	var err error
	if dir == types.DirOutbound {
		chosen, err = negotiateOutbound(conn, candidates)
	} else {
		chosen, err = negotiateInbound(conn, candidates)
	}
	if err != nil {
		return nil, "", err
	}

	transport := u.security[types.ProtocolID(chosen)]
	if transport == nil {
		return nil, "", fmt.Errorf("%w: unexpected security %s", ErrNegotiation, chosen)
	}

	var secureConn interfaces.SecureConn
	if dir == types.DirOutbound {
		secureConn, err = transport.SecureOutbound(ctx, conn, remotePeer)
	} else {
		secureConn, err = transport.SecureInbound(ctx, conn)
	}
	if err != nil {
		return nil, "", err
	}
	return secureConn, types.ProtocolID(chosen), nil
}

// setupMuxer 在加密通道上协商多路复用协议
func (u *Upgrader) setupMuxer(conn interfaces.SecureConn, dir types.Direction) (interfaces.Muxer, string, error) {
	var chosen string
	var err error
	if dir == types.DirOutbound {
		chosen, err = negotiateOutbound(conn, u.muxOrder)
	} else {
		chosen, err = negotiateInbound(conn, u.muxOrder)
	}
	if err != nil {
		return nil, "", err
	}

	factory := u.muxers[chosen]
	if factory == nil {
		return nil, "", fmt.Errorf("%w: unexpected muxer %s", ErrNegotiation, chosen)
	}

	muxer, err := factory.NewMuxer(conn, dir == types.DirInbound)
	if err != nil {
		return nil, "", err
	}
	return muxer, chosen, nil
}
