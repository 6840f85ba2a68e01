package listener

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	got chan string
}

func (h *echoHandler) OnUDPPacket(from netip.AddrPort, buf []byte) error {
	return nil
}

func (h *echoHandler) OnUDPPacketReply(from netip.AddrPort, buf []byte, reply func([]byte) error) error {
	h.got <- string(buf)
	return reply(buf)
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	c, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := c.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, c.Close())
	return port
}

func TestGnetUDPListenerEcho(t *testing.T) {
	h := &echoHandler{got: make(chan string, 4)}
	port := freeUDPPort(t)
	l := NewGnetUDPListener(h, "127.0.0.1", port, WithSocketBuffer(1<<20))
	require.NoError(t, l.Listen())
	defer l.Stop()

	c := dialUDP(t, netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(port)))
	_, err := c.Write(HealthCheckProbe())
	require.NoError(t, err)
	_, err = c.Write([]byte("echo"))
	require.NoError(t, err)

	select {
	case s := <-h.got:
		require.Equal(t, "echo", s)
	case <-time.After(3 * time.Second):
		t.Fatal("gnet packet not delivered")
	}

	buf := make([]byte, 64)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := c.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "echo", string(buf[:n]))
	require.Equal(t, uint16(port), l.LocalAddr().Port())

	l.Stop()
	select {
	case <-l.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("gnet engine not stopped")
	}
}
