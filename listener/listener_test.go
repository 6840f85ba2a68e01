package listener

import (
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/errs"
)

type packet struct {
	from netip.AddrPort
	data []byte
}

func dialUDP(t *testing.T, to netip.AddrPort) *net.UDPConn {
	t.Helper()
	c, err := net.DialUDP("udp", nil, net.UDPAddrFromAddrPort(to))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestUDPListenerDropsHealthCheck(t *testing.T) {
	pkts := make(chan packet, 8)
	l := NewUDPListener(UDPHandlerFunc(func(from netip.AddrPort, buf []byte) error {
		pkts <- packet{from: from, data: append([]byte(nil), buf...)}
		return nil
	}), "127.0.0.1", 0)
	require.NoError(t, l.Listen())
	defer l.Stop()
	require.Greater(t, l.Fd(), 0)

	c := dialUDP(t, l.LocalAddr())
	_, err := c.Write(HealthCheckProbe())
	require.NoError(t, err)
	_, err = c.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case p := <-pkts:
		require.Equal(t, "hello", string(p.data))
		require.Equal(t, c.LocalAddr().(*net.UDPAddr).AddrPort(), p.from)
	case <-time.After(2 * time.Second):
		t.Fatal("packet not delivered")
	}
	select {
	case p := <-pkts:
		t.Fatalf("unexpected packet %q", p.data)
	case <-time.After(50 * time.Millisecond):
	}

	l.Stop()
	require.True(t, errs.IsQuit(l.Err()))
}

func TestUDPListenerHandlerErrorIsFatal(t *testing.T) {
	boom := errors.New("bad packet")
	l := NewUDPListener(UDPHandlerFunc(func(netip.AddrPort, []byte) error {
		return boom
	}), "127.0.0.1", 0, WithSocketBuffer(0))
	require.NoError(t, l.Listen())
	defer l.Stop()

	c := dialUDP(t, l.LocalAddr())
	_, err := c.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener still running")
	}
	require.ErrorIs(t, l.Err(), boom)
	require.Contains(t, l.Err().Error(), "handle packet 1 bytes")
}

type fdAware struct {
	conn *net.UDPConn
}

func (h *fdAware) SetConn(conn *net.UDPConn) { h.conn = conn }

func (h *fdAware) OnUDPPacket(netip.AddrPort, []byte) error { return nil }

func TestUDPListenerSetConn(t *testing.T) {
	h := &fdAware{}
	l := NewUDPListener(h, "127.0.0.1", 0)
	require.NoError(t, l.Listen())
	defer l.Stop()
	require.Same(t, l.Conn(), h.conn)
}

func TestUDPListenerBindError(t *testing.T) {
	l := NewUDPListener(UDPHandlerFunc(func(netip.AddrPort, []byte) error { return nil }), "bad-ip", 0)
	err := l.Listen()
	require.Equal(t, int32(errs.ErrCode_IPInvalid), errs.Code(err))
	require.Nil(t, l.Done())
	l.Stop()
}

func TestTCPListenerAccept(t *testing.T) {
	accepted := make(chan bool, 1)
	l := NewTCPListener(TCPHandlerFunc(func(conn *net.TCPConn) error {
		accepted <- isCloseExec(conn)
		return conn.Close()
	}), "127.0.0.1", 0)
	require.NoError(t, l.Listen())
	defer l.Stop()
	require.Equal(t, TCPStackSize, l.StackSize())

	c, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(l.LocalAddr()))
	require.NoError(t, err)
	defer c.Close()

	select {
	case cloexec := <-accepted:
		require.True(t, cloexec)
	case <-time.After(2 * time.Second):
		t.Fatal("client not accepted")
	}

	l.Stop()
	require.True(t, errs.IsQuit(l.Err()))
}

func TestTCPListenerHandlerError(t *testing.T) {
	l := NewTCPListener(TCPHandlerFunc(func(conn *net.TCPConn) error {
		conn.Close()
		return errs.Unknown.Printf("reject")
	}), "127.0.0.1", 0)
	require.NoError(t, l.Listen())
	defer l.Stop()

	c, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(l.LocalAddr()))
	require.NoError(t, err)
	defer c.Close()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener still running")
	}
	require.Contains(t, l.Err().Error(), "handle fd=")
	require.False(t, errs.IsQuit(l.Err()))
}

func TestIsHealthCheck(t *testing.T) {
	require.True(t, IsHealthCheck(HealthCheckProbe()))
	pkt := HealthCheckProbe()
	pkt[20] = 'x'
	require.False(t, IsHealthCheck(pkt))
	require.False(t, IsHealthCheck(append(HealthCheckProbe(), 0)))
}
