package listener

import (
	"net"
	"net/netip"
	"time"

	"github.com/rs/xid"

	"github.com/fixkme/evcore/coroutine"
	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/netx"
)

// MaxPacketSize udp最大包长
const MaxPacketSize = 65535

// UDPListener 在独立协程中阻塞收包, 收到的包同步交给handler处理.
// 收包失败或handler返回错误都会结束协程.
type UDPListener struct {
	handler UDPHandler
	ip      string
	port    int
	cid     string
	conn    *net.UDPConn
	buf     []byte
	task    *coroutine.Task
	opts    *options
	log     mlog.Logger
}

func NewUDPListener(h UDPHandler, ip string, port int, opts ...Option) *UDPListener {
	o := newOptions(opts)
	return &UDPListener{
		handler: h,
		ip:      ip,
		port:    port,
		cid:     xid.New().String(),
		buf:     make([]byte, MaxPacketSize),
		opts:    o,
		log:     o.log,
	}
}

func (l *UDPListener) Listen() error {
	addr, err := netx.UDPAddr(l.ip, l.port)
	if err != nil {
		return errs.Wrap(err, "listen %s:%d", l.ip, l.port)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return errs.SocketBind.With(err).Printf("listen %s:%d", l.ip, l.port)
	}
	l.conn = conn
	l.setSocketBuffer()

	if fa, ok := l.handler.(FdAwareHandler); ok {
		fa.SetConn(conn)
	}

	l.task = coroutine.New("udp", coroutine.HandlerFunc(l.cycle),
		coroutine.WithLogger(l.log), coroutine.WithCID(l.cid))
	l.task.OnInterrupt(func() {
		// 唤醒阻塞的ReadFrom
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	if err = l.task.Start(); err != nil {
		return errs.Wrap(err, "start thread")
	}
	return nil
}

func (l *UDPListener) setSocketBuffer() {
	if l.opts.socketBuffer <= 0 {
		return
	}
	snd, rcv, err := setSocketBuffer(l.conn, l.opts.socketBuffer)
	if err != nil {
		l.log.Warnf("udp %s:%d socket buffer: %v", l.ip, l.port, err)
		return
	}
	if snd.Err != nil {
		l.log.Warnf("set SO_SNDBUF failed, expect=%d, err=%v", snd.Expect, snd.Err)
	}
	if rcv.Err != nil {
		l.log.Warnf("set SO_RCVBUF failed, expect=%d, err=%v", rcv.Expect, rcv.Err)
	}
	l.log.Infof("UDP #%d LISTEN at %s, SO_SNDBUF(default=%d, expect=%d, actual=%d), SO_RCVBUF(default=%d, expect=%d, actual=%d)",
		l.Fd(), l.conn.LocalAddr(), snd.Default, snd.Expect, snd.Actual, rcv.Default, rcv.Expect, rcv.Actual)
}

func (l *UDPListener) cycle(t *coroutine.Task) error {
	for {
		if err := t.Pull(); err != nil {
			return errs.Wrap(err, "udp listener")
		}

		n, from, err := l.conn.ReadFromUDPAddrPort(l.buf)
		if err != nil || n <= 0 {
			if perr := t.Pull(); perr != nil {
				return errs.Wrap(perr, "udp listener")
			}
			return errs.SocketRead.With(err).Printf("udp read, nread=%d", n)
		}

		pkt := l.buf[:n]
		if IsHealthCheck(pkt) {
			continue
		}
		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		if err = l.handler.OnUDPPacket(from, pkt); err != nil {
			return errs.Wrap(err, "handle packet %d bytes", n)
		}

		if l.opts.recvInterval > 0 {
			if err = t.Sleep(l.opts.recvInterval); err != nil {
				return errs.Wrap(err, "udp listener")
			}
		}
	}
}

// Stop 中断收包协程, 等待其退出后关闭socket
func (l *UDPListener) Stop() {
	if l.task != nil {
		l.task.Stop()
	}
	if l.conn != nil {
		l.conn.Close()
	}
}

func (l *UDPListener) Conn() *net.UDPConn {
	return l.conn
}

func (l *UDPListener) LocalAddr() netip.AddrPort {
	if l.conn == nil {
		return netip.AddrPort{}
	}
	return l.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// Fd 返回-1表示未监听
func (l *UDPListener) Fd() int {
	if l.conn == nil {
		return -1
	}
	return connFd(l.conn)
}

func (l *UDPListener) CID() string {
	return l.cid
}

// Done is nil before Listen.
func (l *UDPListener) Done() <-chan struct{} {
	if l.task == nil {
		return nil
	}
	return l.task.Done()
}

func (l *UDPListener) Err() error {
	if l.task == nil {
		return nil
	}
	return l.task.Err()
}
