package listener

import (
	"net"
	"net/netip"
)

// UDPHandler buf只在回调期间有效, 下一次接收会覆盖
type UDPHandler interface {
	OnUDPPacket(from netip.AddrPort, buf []byte) error
}

type UDPHandlerFunc func(from netip.AddrPort, buf []byte) error

func (f UDPHandlerFunc) OnUDPPacket(from netip.AddrPort, buf []byte) error {
	return f(from, buf)
}

// FdAwareHandler is told the bound socket before the receive loop starts, so
// it can reply through the same fd.
type FdAwareHandler interface {
	SetConn(conn *net.UDPConn)
}

// UDPReplyHandler is preferred by engines that own the socket, reply sends
// back to the packet's sender.
type UDPReplyHandler interface {
	OnUDPPacketReply(from netip.AddrPort, buf []byte, reply func([]byte) error) error
}

// TCPHandler 接管conn, 负责关闭
type TCPHandler interface {
	OnTCPClient(conn *net.TCPConn) error
}

type TCPHandlerFunc func(conn *net.TCPConn) error

func (f TCPHandlerFunc) OnTCPClient(conn *net.TCPConn) error {
	return f(conn)
}
