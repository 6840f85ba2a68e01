package listener

import (
	"net"
	"net/netip"
	"time"

	"github.com/fixkme/evcore/coroutine"
	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/netx"
)

type TCPListener struct {
	handler TCPHandler
	ip      string
	port    int
	ln      *net.TCPListener
	task    *coroutine.Task
	log     mlog.Logger
}

func NewTCPListener(h TCPHandler, ip string, port int, opts ...Option) *TCPListener {
	o := newOptions(opts)
	return &TCPListener{
		handler: h,
		ip:      ip,
		port:    port,
		log:     o.log,
	}
}

func (l *TCPListener) Listen() error {
	addr, err := netx.TCPAddr(l.ip, l.port)
	if err != nil {
		return errs.Wrap(err, "listen at %s:%d", l.ip, l.port)
	}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return errs.SocketBind.With(err).Printf("listen at %s:%d", l.ip, l.port)
	}
	l.ln = ln

	l.task = coroutine.New("tcp", coroutine.HandlerFunc(l.cycle),
		coroutine.WithLogger(l.log), coroutine.WithStackSize(TCPStackSize))
	l.task.OnInterrupt(func() {
		_ = ln.SetDeadline(time.Unix(1, 0))
	})
	if err = l.task.Start(); err != nil {
		return errs.Wrap(err, "start coroutine")
	}
	l.log.Infof("TCP #%d LISTEN at %s", l.Fd(), ln.Addr())
	return nil
}

func (l *TCPListener) cycle(t *coroutine.Task) error {
	for {
		if err := t.Pull(); err != nil {
			return errs.Wrap(err, "tcp listener")
		}

		conn, err := l.ln.AcceptTCP()
		if err != nil {
			if perr := t.Pull(); perr != nil {
				return errs.Wrap(perr, "tcp listener")
			}
			return errs.SocketAccept.With(err).Printf("accept at fd=%d", l.Fd())
		}

		if err = setCloseExec(conn); err != nil {
			conn.Close()
			return errs.Wrap(err, "set closeexec")
		}
		fd := connFd(conn)
		if err = l.handler.OnTCPClient(conn); err != nil {
			return errs.Wrap(err, "handle fd=%d", fd)
		}
	}
}

func (l *TCPListener) Stop() {
	if l.task != nil {
		l.task.Stop()
	}
	if l.ln != nil {
		l.ln.Close()
	}
}

func (l *TCPListener) Listener() *net.TCPListener {
	return l.ln
}

func (l *TCPListener) LocalAddr() netip.AddrPort {
	if l.ln == nil {
		return netip.AddrPort{}
	}
	return l.ln.Addr().(*net.TCPAddr).AddrPort()
}

func (l *TCPListener) Fd() int {
	if l.ln == nil {
		return -1
	}
	return connFd(l.ln)
}

func (l *TCPListener) StackSize() int {
	if l.task == nil {
		return TCPStackSize
	}
	return l.task.StackSize()
}

func (l *TCPListener) Done() <-chan struct{} {
	if l.task == nil {
		return nil
	}
	return l.task.Done()
}

func (l *TCPListener) Err() error {
	if l.task == nil {
		return nil
	}
	return l.task.Err()
}
