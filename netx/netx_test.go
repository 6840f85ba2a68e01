package netx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/errs"
)

func TestParseHostPort(t *testing.T) {
	cases := []struct {
		in   string
		host string
		port int
	}{
		{"", "def", 1935},
		{"localhost", "localhost", 1935},
		{"127.0.0.1:8000", "127.0.0.1", 8000},
		{"127.0.0.1:0", "127.0.0.1", 1935},
		{"127.0.0.1:", "127.0.0.1", 1935},
		{"[::1]:8000", "::1", 8000},
		{"::1", "::1", 1935},
		{"[::1]", "[::1]", 1935},
	}
	for _, c := range cases {
		host, port := ParseHostPort(c.in, "def", 1935)
		require.Equal(t, c.host, host, c.in)
		require.Equal(t, c.port, port, c.in)
	}
}

func TestParseEndpoint(t *testing.T) {
	ip, port := ParseEndpoint("10.0.0.1:1985")
	require.Equal(t, "10.0.0.1", ip)
	require.Equal(t, 1985, port)

	ip, port = ParseEndpoint("[3ffe:dead:beef::1]:1935")
	require.Equal(t, "3ffe:dead:beef::1", ip)
	require.Equal(t, 1935, port)

	ip, port = ParseEndpoint("8000")
	require.Contains(t, []string{AnyIPv4, AnyIPv6}, ip)
	require.Equal(t, 8000, port)
}

func TestCheckIPAddrValid(t *testing.T) {
	require.True(t, CheckIPAddrValid("192.168.1.1"))
	require.True(t, CheckIPAddrValid("fe80::1"))
	require.False(t, CheckIPAddrValid("300.1.1.1"))
	require.False(t, CheckIPAddrValid("example.com"))
}

func TestAddrs(t *testing.T) {
	addr, err := UDPAddr("127.0.0.1", 8000)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8000", addr.String())

	_, err = TCPAddr("nope", 80)
	require.Equal(t, int32(errs.ErrCode_IPInvalid), errs.Code(err))

	require.Equal(t, "[::1]:80", JoinHostPort("::1", 80))
}

func TestDNSResolveNumeric(t *testing.T) {
	addr, err := DNSResolve(context.Background(), "127.0.0.1", "ip4")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", addr.String())
}
