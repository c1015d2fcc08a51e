package multiaddr

import (
	"fmt"
	"net"
)

// FromTCPAddr 从 net.TCPAddr 构造多地址
func FromTCPAddr(addr *net.TCPAddr) (Multiaddr, error) {
	if addr == nil {
		return nil, ErrEmptyAddress
	}
	ip := addr.IP
	if ip == nil {
		ip = net.IPv4zero
	}
	if ip4 := ip.To4(); ip4 != nil {
		return NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d", ip4, addr.Port))
	}
	return NewMultiaddr(fmt.Sprintf("/ip6/%s/tcp/%d", ip, addr.Port))
}

// FromNetAddr 从 net.Addr 构造多地址（目前仅支持 TCP）
func FromNetAddr(addr net.Addr) (Multiaddr, error) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported net.Addr %T", ErrUnknownProtocol, addr)
	}
	return FromTCPAddr(tcpAddr)
}

// DialArgs 返回 net.Dial 可用的 (network, address)
//
// dns4 地址在此保留主机名，由 net.Dialer 在拨号时解析。
func DialArgs(m Multiaddr) (network string, address string, err error) {
	port, err := m.ValueForProtocol(P_TCP)
	if err != nil {
		return "", "", err
	}

	if host, err := m.ValueForProtocol(P_IP4); err == nil {
		return "tcp4", net.JoinHostPort(host, port), nil
	}
	if host, err := m.ValueForProtocol(P_IP6); err == nil {
		return "tcp6", net.JoinHostPort(host, port), nil
	}
	if host, err := m.ValueForProtocol(P_DNS4); err == nil {
		return "tcp4", net.JoinHostPort(host, port), nil
	}

	return "", "", fmt.Errorf("%w: no host component in %s", ErrNoMatch, m)
}
