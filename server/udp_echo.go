package server

import (
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/fixkme/evcore/cond"
	"github.com/fixkme/evcore/listener"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/stats"
)

const sendTimeout = 100 * time.Millisecond

// udpEcho 回显收到的udp包, 记录对端并通知drain协程
type udpEcho struct {
	mu       sync.Mutex
	send     *listener.UDPMuxSocket
	ident    *listener.UDPMuxSocket
	peers    *peerTable
	notify   *cond.Condition
	counters *stats.Counters
	log      mlog.Logger
}

func newUDPEcho(peers *peerTable, notify *cond.Condition, counters *stats.Counters, log mlog.Logger) *udpEcho {
	return &udpEcho{
		ident:    listener.NewUDPMuxSocket(nil).CopySendOnly(),
		peers:    peers,
		notify:   notify,
		counters: counters,
		log:      log,
	}
}

// SetConn 收包协程启动前调用, 回包复用监听socket
func (h *udpEcho) SetConn(conn *net.UDPConn) {
	mux := listener.NewUDPMuxSocket(conn)
	mux.SetLocalPort(conn.LocalAddr().(*net.UDPAddr).Port)
	h.send = mux.CopySendOnly()
}

func (h *udpEcho) OnUDPPacket(from netip.AddrPort, buf []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.track(from, len(buf))
	if h.send == nil {
		return nil
	}
	h.send.SetPeer(from)
	if err := h.send.SendTo(buf, sendTimeout); err != nil {
		// 回包失败不影响收包
		h.counters.UDPErrors.Add(1)
		h.log.Debugf("udp echo to %s: %v", h.send.PeerID(), err)
	}
	return nil
}

func (h *udpEcho) OnUDPPacketReply(from netip.AddrPort, buf []byte, reply func([]byte) error) error {
	h.mu.Lock()
	h.track(from, len(buf))
	h.mu.Unlock()
	if err := reply(buf); err != nil {
		h.counters.UDPErrors.Add(1)
		h.log.Debugf("udp echo to %s: %v", from, err)
	}
	return nil
}

func (h *udpEcho) track(from netip.AddrPort, n int) {
	h.counters.UDPPackets.Add(1)
	h.counters.UDPBytes.Add(int64(n))

	h.ident.SetPeer(from)
	key := h.ident.PeerID()
	if from.Addr().Unmap().Is4() {
		key = strconv.FormatUint(h.ident.FastID(), 16)
	}
	if h.peers.touch(key) {
		h.log.Debugf("udp new peer %s", h.ident.PeerID())
	}
	h.notify.Notify()
}
