package listener

import (
	"encoding/binary"
	"errors"
	"net"
	"net/netip"
	"os"
	"runtime"
	"time"

	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/netx"
)

// NoTimeout 阻塞直到有数据
const NoTimeout time.Duration = -1

// yieldAfterSends 连续发送多少个包后让出调度
const yieldAfterSends = 20

// UDPMuxSocket 多路复用一个udp socket, 记录最近一个数据包的来源.
// 不是并发安全的, 每个接收方或发送方持有自己的实例, 需要保留发送能力时用CopySendOnly.
// FastID只对ipv4对端计算, ipv6对端不会刷新它, 两种地址族的对端标识不对称.
type UDPMuxSocket struct {
	conn  *net.UDPConn
	buf   []byte
	nread int

	from           netip.AddrPort
	peerIP         string
	peerPort       int
	peerID         string
	fastID         uint64
	addressChanged bool
	// ipv4 -> 文本形式
	cache map[uint32]string

	localPort    int
	nnMsgsYield  int
	nnPeerParsed int
}

func NewUDPMuxSocket(conn *net.UDPConn) *UDPMuxSocket {
	return &UDPMuxSocket{
		conn:  conn,
		buf:   make([]byte, MaxPacketSize),
		cache: make(map[uint32]string),
	}
}

// RecvFrom reads one datagram. A health check probe is consumed and reported
// as 0 bytes. On timeout it returns 0 and an error with the socket timeout code.
func (m *UDPMuxSocket) RecvFrom(timeout time.Duration) (int, error) {
	if m.buf == nil {
		return 0, errs.SocketRead.Printf("recvfrom on send only socket")
	}
	var deadline time.Time
	if timeout != NoTimeout {
		deadline = time.Now().Add(timeout)
	}
	if err := m.conn.SetReadDeadline(deadline); err != nil {
		return 0, errs.SocketRead.With(err).Printf("set read deadline")
	}

	n, from, err := m.conn.ReadFromUDPAddrPort(m.buf)
	if err != nil {
		m.nread = 0
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, errs.SocketTimeout.With(err).Printf("recvfrom timeout %d ms", timeout.Milliseconds())
		}
		return 0, errs.SocketRead.With(err).Printf("recvfrom")
	}
	m.nread = n
	if n <= 0 {
		return n, nil
	}

	if IsHealthCheck(m.buf[:n]) {
		return 0, nil
	}

	m.from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
	// 只有ipv4更新fastID, 其他地址族保留上一次的值, 调用方应改用PeerID
	if m.from.Addr().Is4() {
		m.fastID = fastID(m.from)
	}
	m.addressChanged = true
	return n, nil
}

// fastID port<<48 | ipv4, ap必须是ipv4
func fastID(ap netip.AddrPort) uint64 {
	b := ap.Addr().As4()
	return uint64(ap.Port())<<48 | uint64(binary.BigEndian.Uint32(b[:]))
}

// SendTo sends data to the current peer. timeout == NoTimeout blocks.
func (m *UDPMuxSocket) SendTo(data []byte, timeout time.Duration) error {
	var deadline time.Time
	if timeout != NoTimeout {
		deadline = time.Now().Add(timeout)
	}
	if err := m.conn.SetWriteDeadline(deadline); err != nil {
		return errs.SocketWrite.With(err).Printf("set write deadline")
	}

	n, err := m.conn.WriteToUDPAddrPort(data, m.from)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return errs.SocketTimeout.With(err).Printf("sendto timeout %d ms", timeout.Milliseconds())
		}
		return errs.SocketWrite.With(err).Printf("sendto %s", m.from)
	}
	if n <= 0 && len(data) > 0 {
		return errs.SocketWrite.Printf("sendto %s, nwrite=%d", m.from, n)
	}

	m.nnMsgsYield++
	if m.nnMsgsYield > yieldAfterSends {
		m.nnMsgsYield = 0
		runtime.Gosched()
	}
	return nil
}

// PeerID returns "ip:port" of the last peer, recomputed only after the
// address changed. IPv4 text is cached per address; other families are
// formatted each time, and ipv6 is bracketed ("[::1]:8000") on purpose so
// the id parses back with net.SplitHostPort.
func (m *UDPMuxSocket) PeerID() string {
	if !m.addressChanged {
		return m.peerID
	}
	m.addressChanged = false
	m.nnPeerParsed++

	addr := m.from.Addr()
	if !addr.IsValid() {
		m.peerIP, m.peerPort, m.peerID = "", 0, ""
		return ""
	}
	if addr.Is4() {
		b := addr.As4()
		key := binary.BigEndian.Uint32(b[:])
		ip, ok := m.cache[key]
		if !ok {
			ip = addr.String()
			if m.cache == nil {
				m.cache = make(map[uint32]string)
			}
			m.cache[key] = ip
		}
		m.peerIP = ip
	} else {
		m.peerIP = addr.String()
	}
	m.peerPort = int(m.from.Port())
	m.peerID = netx.JoinHostPort(m.peerIP, m.peerPort)
	return m.peerID
}

func (m *UDPMuxSocket) FastID() uint64 {
	return m.fastID
}

func (m *UDPMuxSocket) PeerIP() string {
	m.PeerID()
	return m.peerIP
}

func (m *UDPMuxSocket) PeerPort() int {
	m.PeerID()
	return m.peerPort
}

func (m *UDPMuxSocket) PeerAddr() netip.AddrPort {
	return m.from
}

// Data 最近一次收到的数据, 下一次RecvFrom会覆盖
func (m *UDPMuxSocket) Data() []byte {
	if m.buf == nil {
		return nil
	}
	return m.buf[:m.nread]
}

func (m *UDPMuxSocket) Size() int {
	return m.nread
}

func (m *UDPMuxSocket) Conn() *net.UDPConn {
	return m.conn
}

func (m *UDPMuxSocket) LocalPort() int {
	return m.localPort
}

func (m *UDPMuxSocket) SetLocalPort(port int) {
	m.localPort = port
}

// CopySendOnly 复制一个只能发送的实例, 共享socket和对端地址, 不复制接收缓冲
func (m *UDPMuxSocket) CopySendOnly() *UDPMuxSocket {
	return &UDPMuxSocket{
		conn:           m.conn,
		from:           m.from,
		peerIP:         m.peerIP,
		peerPort:       m.peerPort,
		peerID:         m.peerID,
		fastID:         m.fastID,
		addressChanged: m.addressChanged,
		localPort:      m.localPort,
	}
}

// UpdateFromAddr points the socket at an explicit ipv4 peer.
func (m *UDPMuxSocket) UpdateFromAddr(ip string, port int) error {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return errs.IPInvalid.With(err).Printf("ip=%s", ip)
	}
	if !addr.Is4() {
		return errs.IPInvalid.Printf("ip=%s, not ipv4", ip)
	}
	m.from = netip.AddrPortFrom(addr, uint16(port))
	m.fastID = fastID(m.from)
	m.addressChanged = true
	return nil
}

// SetPeer 指定对端, 支持任意地址族; 非ipv4时fastID保持不变
func (m *UDPMuxSocket) SetPeer(ap netip.AddrPort) {
	m.from = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	if m.from.Addr().Is4() {
		m.fastID = fastID(m.from)
	}
	m.addressChanged = true
}
