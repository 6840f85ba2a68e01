package server

import (
	"bufio"
	"io"
	"net"
	"net/netip"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/cond"
	"github.com/fixkme/evcore/config"
	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/stats"
	"github.com/fixkme/evcore/timer"
)

func testConfig() *config.AppConfig {
	conf := &config.AppConfig{}
	conf.ServerId = 1
	conf.AppVersion = "test"
	conf.UdpListen = "127.0.0.1:0"
	conf.TcpListen = "127.0.0.1:0"
	conf.UdpSocketBuffer = -1
	conf.HeartbeatResolution = 10
	conf.HeartbeatInterval = 50
	conf.FastTimerInterval = 5
	conf.PeerIdleTimeout = 150
	conf.PoolSize = 4
	conf.SetDefaults()
	return conf
}

func TestServerEchoAndExpiry(t *testing.T) {
	counters := &stats.Counters{}
	var ticks atomic.Int32
	s := New(testConfig(), counters, WithSubscriber(timer.FastTimerFunc(func(time.Duration) error {
		ticks.Add(1)
		return nil
	})))
	require.NoError(t, s.OnInit())
	ran := make(chan struct{})
	go func() {
		s.Run()
		close(ran)
	}()
	defer s.Destroy()

	c, err := net.DialUDP("udp", nil, net.UDPAddrFromAddrPort(s.UDPAddr()))
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Write([]byte("marco"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := c.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "marco", string(buf[:n]))

	require.Eventually(t, func() bool { return counters.Drained.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, int64(1), counters.UDPPackets.Load())
	require.Equal(t, int64(5), counters.UDPBytes.Load())

	// 超时后对端被移除
	require.Eventually(t, func() bool { return counters.ExpiredPeers.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Zero(t, s.Peers())

	require.Eventually(t, func() bool { return counters.Heartbeats.Load() > 0 && ticks.Load() > 0 },
		2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Health())

	s.Destroy()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return")
	}
	require.True(t, errs.IsQuit(s.Health()))
}

func TestServerTCPGreeting(t *testing.T) {
	counters := &stats.Counters{}
	s := New(testConfig(), counters)
	require.NoError(t, s.OnInit())
	defer s.Destroy()

	conn, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(s.TCPAddr()))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "evcore test server=1\n", line)
	require.Equal(t, int64(1), counters.TCPClients.Load())
}

func TestServerInvalidHeartbeatInterval(t *testing.T) {
	conf := testConfig()
	conf.HeartbeatInterval = 25
	s := New(conf, &stats.Counters{})
	err := s.OnInit()
	require.ErrorIs(t, err, errs.HourglassResolution)
}

func TestServerUnknownUDPEngine(t *testing.T) {
	conf := testConfig()
	conf.UdpEngine = "quic"
	s := New(conf, &stats.Counters{})
	err := s.OnInit()
	require.ErrorIs(t, err, errs.Unknown)
	require.Contains(t, err.Error(), `unknown udp engine "quic"`)
	require.Nil(t, s.udp)
}

func TestServerFatalLoop(t *testing.T) {
	conf := testConfig()
	conf.UdpListen = ""
	conf.TcpListen = ""
	fatal := make(chan error, 1)
	s := New(conf, &stats.Counters{}, WithFatalHandler(func(err error) { fatal <- err }))
	require.NoError(t, s.OnInit())
	defer s.Destroy()
	go s.Run()

	// 未知的心跳事件让心跳循环异常退出
	require.NoError(t, s.heartbeat.TickEvent(99, 0))

	select {
	case err := <-fatal:
		require.Contains(t, err.Error(), "heartbeat")
	case <-time.After(3 * time.Second):
		t.Fatal("fatal handler not called")
	}
}

func TestPeerTable(t *testing.T) {
	p := newPeerTable(time.Second)
	require.True(t, p.touch("a"))
	require.False(t, p.touch("a"))
	require.True(t, p.touch("b"))
	require.Equal(t, 2, p.len())

	key, ok := p.expire(1)
	require.True(t, ok)
	require.Equal(t, "a", key)
	_, ok = p.expire(1)
	require.False(t, ok)
	require.Equal(t, 1, p.len())
}

func TestUDPEchoPeerKeys(t *testing.T) {
	peers := newPeerTable(time.Second)
	notify := cond.New()
	counters := &stats.Counters{}
	echo := newUDPEcho(peers, notify, counters, mlog.NewWriterLogger(io.Discard, mlog.FatalLevel))

	v4 := netip.MustParseAddrPort("10.0.0.1:9000")
	v6 := netip.MustParseAddrPort("[2001:db8::1]:9000")
	require.NoError(t, echo.OnUDPPacket(v4, []byte("a")))
	require.NoError(t, echo.OnUDPPacket(v6, []byte("bb")))
	require.NoError(t, echo.OnUDPPacket(v4, []byte("c")))

	v4Key := strconv.FormatUint(uint64(9000)<<48|uint64(0x0a000001), 16)
	peers.mu.Lock()
	require.Contains(t, peers.byKey, v4Key)
	require.Contains(t, peers.byKey, "[2001:db8::1]:9000")
	peers.mu.Unlock()
	require.Equal(t, 2, peers.len())
	require.Equal(t, int64(3), counters.UDPPackets.Load())
	require.Equal(t, int64(4), counters.UDPBytes.Load())
	require.Equal(t, 3, notify.Pending())
}
