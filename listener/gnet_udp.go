package listener

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/netx"
)

// GnetUDPListener 基于gnet事件循环的udp监听, 可多核收包.
// 与UDPListener的差别: handler在gnet的事件循环协程里执行, 多核时会并发调用.
type GnetUDPListener struct {
	gnet.BuiltinEventEngine
	gnet.Engine

	handler UDPHandler
	ip      string
	port    int
	opts    *options
	log     mlog.Logger

	booted chan struct{}
	done   chan struct{}
	once   sync.Once
	local  atomic.Value // netip.AddrPort
	mu     sync.Mutex
	err    error
}

func NewGnetUDPListener(h UDPHandler, ip string, port int, opts ...Option) *GnetUDPListener {
	o := newOptions(opts)
	return &GnetUDPListener{
		handler: h,
		ip:      ip,
		port:    port,
		opts:    o,
		log:     o.log,
		booted:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Listen 启动事件循环, 等待引擎就绪后返回
func (l *GnetUDPListener) Listen() error {
	if !netx.CheckIPAddrValid(l.ip) {
		return errs.IPInvalid.Printf("listen %s:%d", l.ip, l.port)
	}
	addr := "udp://" + netx.JoinHostPort(l.ip, l.port)
	go func() {
		defer close(l.done)
		err := gnet.Run(l, addr,
			gnet.WithMulticore(l.opts.multicore),
			gnet.WithReusePort(l.opts.multicore),
			gnet.WithSocketRecvBuffer(l.opts.socketBuffer),
			gnet.WithSocketSendBuffer(l.opts.socketBuffer),
			gnet.WithLogger(l.log),
		)
		if err != nil {
			l.setErr(errs.SocketBind.With(err).Printf("listen %s", addr))
		}
		l.once.Do(func() { close(l.booted) })
	}()

	<-l.booted
	select {
	case <-l.done:
		return l.Err()
	default:
	}
	return nil
}

// 在gnet.Run协程里被调用
func (l *GnetUDPListener) OnBoot(eng gnet.Engine) (action gnet.Action) {
	l.Engine = eng
	l.log.Infof("UDP(gnet) LISTEN at %s:%d, multicore=%v", l.ip, l.port, l.opts.multicore)
	l.once.Do(func() { close(l.booted) })
	return gnet.None
}

func (l *GnetUDPListener) OnShutdown(eng gnet.Engine) {
	l.log.Infof("UDP(gnet) %s:%d shutdown", l.ip, l.port)
}

func (l *GnetUDPListener) OnTraffic(c gnet.Conn) (action gnet.Action) {
	buf, err := c.Next(-1)
	if err != nil || len(buf) == 0 {
		l.setErr(errs.SocketRead.With(err).Printf("udp read, nread=%d", len(buf)))
		return gnet.Shutdown
	}
	if l.local.Load() == nil {
		if la, ok := c.LocalAddr().(*net.UDPAddr); ok {
			l.local.Store(la.AddrPort())
		}
	}
	if IsHealthCheck(buf) {
		return gnet.None
	}

	var from netip.AddrPort
	if ra, ok := c.RemoteAddr().(*net.UDPAddr); ok {
		ap := ra.AddrPort()
		from = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}

	if rh, ok := l.handler.(UDPReplyHandler); ok {
		err = rh.OnUDPPacketReply(from, buf, func(data []byte) error {
			_, werr := c.Write(data)
			if werr != nil {
				return errs.SocketWrite.With(werr).Printf("sendto %s", from)
			}
			return nil
		})
	} else {
		err = l.handler.OnUDPPacket(from, buf)
	}
	if err != nil {
		l.setErr(errs.Wrap(err, "handle packet %d bytes", len(buf)))
		return gnet.Shutdown
	}
	return gnet.None
}

func (l *GnetUDPListener) setErr(err error) {
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

// Stop 停止引擎并等待事件循环退出
func (l *GnetUDPListener) Stop() {
	select {
	case <-l.booted:
	default:
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Engine.Stop(ctx); err != nil {
		l.log.Debugf("gnet udp stop: %v", err)
	}
	<-l.done
	l.setErr(errs.Quit.Printf("udp listener %s:%d stopped", l.ip, l.port))
}

// LocalAddr 收到第一个包之前可能为空
func (l *GnetUDPListener) LocalAddr() netip.AddrPort {
	if v, ok := l.local.Load().(netip.AddrPort); ok {
		return v
	}
	return netip.AddrPort{}
}

func (l *GnetUDPListener) Done() <-chan struct{} {
	return l.done
}

func (l *GnetUDPListener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *GnetUDPListener) String() string {
	return fmt.Sprintf("gnet-udp(%s:%d)", l.ip, l.port)
}
