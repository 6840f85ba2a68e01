// Package server wires listeners, timers and the notify queue into one app
// module: udp echo with idle peer expiry, tcp greeting through a worker pool,
// a heartbeat and a stats reporter.
package server

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fixkme/evcore/clock"
	"github.com/fixkme/evcore/cond"
	"github.com/fixkme/evcore/config"
	"github.com/fixkme/evcore/coroutine"
	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/listener"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/netx"
	"github.com/fixkme/evcore/stats"
	"github.com/fixkme/evcore/timer"
)

const (
	EngineST   = "st"
	EngineGnet = "gnet"
)

// heartbeat事件
const (
	eventHeartbeat = 1
	eventStatsLog  = 2
)

type udpListener interface {
	Listen() error
	Stop()
	Done() <-chan struct{}
	Err() error
	LocalAddr() netip.AddrPort
}

type Server struct {
	conf     *config.AppConfig
	counters *stats.Counters
	log      mlog.Logger

	udp       udpListener
	tcp       *listener.TCPListener
	fast      *timer.FastTimer
	heartbeat *timer.HourGlass
	idle      *timer.DynamicTimer
	notify    *cond.Condition
	drain     *coroutine.Task
	pool      *ants.Pool
	peers     *peerTable

	subscribers []timer.FastTimerHandler
	quit        chan struct{}
	fatal       chan error
	onFatal     func(error)
}

type Option func(*Server)

// WithSubscriber 额外的FastTimer订阅者, 如redis上报
func WithSubscriber(h timer.FastTimerHandler) Option {
	return func(s *Server) {
		s.subscribers = append(s.subscribers, h)
	}
}

// WithFatalHandler 循环异常退出时调用, 通常用于停止app
func WithFatalHandler(fn func(error)) Option {
	return func(s *Server) {
		s.onFatal = fn
	}
}

func WithLogger(l mlog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func New(conf *config.AppConfig, counters *stats.Counters, opts ...Option) *Server {
	s := &Server{
		conf:     conf,
		counters: counters,
		log:      mlog.Default(),
		quit:     make(chan struct{}),
		fatal:    make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Name() string {
	return "EventCore"
}

func (s *Server) OnInit() (err error) {
	conf := s.conf
	defer func() {
		if err != nil {
			s.Destroy()
		}
	}()

	s.pool, err = ants.NewPool(conf.PoolSize, ants.WithNonblocking(true), ants.WithPanicHandler(func(r any) {
		s.log.Errorf("tcp pool task panic: %v", r)
	}))
	if err != nil {
		return err
	}

	s.notify = cond.New(cond.WithCapacity(conf.NotifyCapacity))
	s.counters.SetNotifySource(s.notify.Stats)
	s.drain = coroutine.New("drain", coroutine.HandlerFunc(s.drainCycle), coroutine.WithLogger(s.log))

	s.peers = newPeerTable(time.Duration(conf.PeerIdleTimeout) * time.Millisecond)
	s.idle = timer.NewDynamicTimer("peer-idle", timer.DynamicTimerFunc(s.onPeerIdle),
		100*time.Millisecond, timer.WithLogger(s.log))
	s.peers.idle = s.idle

	res := time.Duration(conf.HeartbeatResolution) * time.Millisecond
	s.heartbeat = timer.NewHourGlass("heartbeat", timer.HourGlassFunc(s.onHeartbeat), res, timer.WithLogger(s.log))
	if err = s.heartbeat.TickEvent(eventHeartbeat, 0); err != nil {
		return err
	}
	if err = s.heartbeat.TickEvent(eventStatsLog, time.Duration(conf.HeartbeatInterval)*time.Millisecond); err != nil {
		return errs.Wrap(err, "heartbeat interval")
	}

	s.fast = timer.NewFastTimer("fast", time.Duration(conf.FastTimerInterval)*time.Millisecond, timer.WithLogger(s.log))
	s.fast.Subscribe(timer.FastTimerFunc(s.housekeeping))
	for _, h := range s.subscribers {
		s.fast.Subscribe(h)
	}

	if conf.UdpListen != "" {
		ip, port := netx.ParseEndpoint(conf.UdpListen)
		echo := newUDPEcho(s.peers, s.notify, s.counters, s.log)
		lopts := []listener.Option{
			listener.WithLogger(s.log),
			listener.WithSocketBuffer(conf.UdpSocketBuffer),
			listener.WithRecvInterval(time.Duration(conf.UdpRecvInterval) * time.Millisecond),
			listener.WithMulticore(conf.UdpMulticore),
		}
		switch conf.UdpEngine {
		case EngineGnet:
			s.udp = listener.NewGnetUDPListener(echo, ip, port, lopts...)
		case EngineST, "":
			s.udp = listener.NewUDPListener(echo, ip, port, lopts...)
		default:
			return errs.Unknown.Printf("unknown udp engine %q", conf.UdpEngine)
		}
		if err = s.udp.Listen(); err != nil {
			return err
		}
	}

	if conf.TcpListen != "" {
		ip, port := netx.ParseEndpoint(conf.TcpListen)
		s.tcp = listener.NewTCPListener(&tcpGreet{
			pool:     s.pool,
			greeting: []byte(fmt.Sprintf("evcore %s server=%d\n", conf.AppVersion, conf.ServerId)),
			counters: s.counters,
			log:      s.log,
		}, ip, port, listener.WithLogger(s.log))
		if err = s.tcp.Listen(); err != nil {
			return err
		}
	}

	for _, start := range []func() error{s.idle.Start, s.heartbeat.Start, s.fast.Start, s.drain.Start} {
		if err = start(); err != nil {
			return err
		}
	}
	return nil
}

// Run 等待任一循环异常退出或Destroy
func (s *Server) Run() {
	watch := func(name string, done <-chan struct{}, errf func() error) {
		if done == nil {
			return
		}
		go func() {
			select {
			case <-done:
				if err := errf(); err != nil && !errs.IsQuit(err) {
					select {
					case s.fatal <- errs.Wrap(err, "%s", name):
					default:
					}
				}
			case <-s.quit:
			}
		}()
	}
	if s.udp != nil {
		watch("udp", s.udp.Done(), s.udp.Err)
	}
	if s.tcp != nil {
		watch("tcp", s.tcp.Done(), s.tcp.Err)
	}
	watch("heartbeat", s.heartbeat.Done(), s.heartbeat.Err)
	watch("peer-idle", s.idle.Done(), s.idle.Err)
	watch("drain", s.drain.Done(), s.drain.Err)

	select {
	case err := <-s.fatal:
		s.log.Errorf("event core terminated: %v", err)
		if s.onFatal != nil {
			s.onFatal(err)
		}
	case <-s.quit:
	}
}

// Destroy 停止顺序: 先停收包, 再停定时器和协程池
func (s *Server) Destroy() {
	select {
	case <-s.quit:
		return
	default:
		close(s.quit)
	}
	if s.udp != nil {
		s.udp.Stop()
	}
	if s.tcp != nil {
		s.tcp.Stop()
	}
	for _, stop := range []func(){s.stopFast, s.stopHeartbeat, s.stopIdle, s.stopDrain} {
		stop()
	}
	if s.pool != nil {
		if err := s.pool.ReleaseTimeout(3 * time.Second); err != nil {
			s.log.Warnf("tcp pool release: %v", err)
		}
	}
}

func (s *Server) stopFast() {
	if s.fast != nil {
		s.fast.Stop()
	}
}

func (s *Server) stopHeartbeat() {
	if s.heartbeat != nil {
		s.heartbeat.Stop()
	}
}

func (s *Server) stopIdle() {
	if s.idle != nil {
		s.idle.Stop()
	}
}

func (s *Server) stopDrain() {
	if s.drain != nil {
		s.drain.Stop()
	}
}

// UDPAddr 实际监听的udp地址
func (s *Server) UDPAddr() netip.AddrPort {
	if s.udp == nil {
		return netip.AddrPort{}
	}
	return s.udp.LocalAddr()
}

func (s *Server) TCPAddr() netip.AddrPort {
	if s.tcp == nil {
		return netip.AddrPort{}
	}
	return s.tcp.LocalAddr()
}

// Health 任一循环已退出即不健康
func (s *Server) Health() error {
	select {
	case <-s.quit:
		return errs.Quit.Printf("server stopped")
	default:
	}
	if s.udp != nil {
		select {
		case <-s.udp.Done():
			return errs.Wrap(s.udp.Err(), "udp")
		default:
		}
	}
	if s.tcp != nil {
		select {
		case <-s.tcp.Done():
			return errs.Wrap(s.tcp.Err(), "tcp")
		default:
		}
	}
	return nil
}

func (s *Server) Peers() int {
	return s.peers.len()
}

func (s *Server) onHeartbeat(event int, interval, tick time.Duration) error {
	switch event {
	case eventHeartbeat:
		s.counters.Heartbeats.Add(1)
	case eventStatsLog:
		snap := s.counters.Snapshot()
		s.log.Infof("heartbeat tick=%dms peers=%d udp=%d/%dB tcp=%d drained=%d dropped=%d",
			tick.Milliseconds(), s.peers.len(), snap.UDPPackets, snap.UDPBytes, snap.TCPClients,
			snap.Drained, snap.NotifyDropped)
	default:
		return errs.Unknown.Printf("unknown heartbeat event %d", event)
	}
	return nil
}

func (s *Server) onPeerIdle(event int, now time.Duration) error {
	if key, ok := s.peers.expire(event); ok {
		s.counters.ExpiredPeers.Add(1)
		s.log.Debugf("udp peer %s idle expired", key)
	}
	return nil
}

// housekeeping 高频刷新缓存的系统时间
func (s *Server) housekeeping(interval time.Duration) error {
	clock.UpdateSystemTime()
	return nil
}

// drainCycle 消费udp收包通知
func (s *Server) drainCycle(t *coroutine.Task) error {
	for {
		if err := t.Pull(); err != nil {
			return errs.Wrap(err, "drain")
		}
		err := s.notify.WaitTimeout(100 * time.Millisecond)
		if err == nil {
			s.counters.Drained.Add(1)
			continue
		}
		if !errs.IsTimeout(err) {
			return errs.Wrap(err, "drain")
		}
	}
}
