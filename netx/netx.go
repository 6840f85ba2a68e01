// Package netx parses listen endpoints and validates addresses.
package netx

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/fixkme/evcore/errs"
)

const (
	AnyIPv4 = "0.0.0.0"
	AnyIPv6 = "::"
)

// ParseHostPort splits "host", "host:port" or "[v6]:port". Missing parts keep
// the given defaults; a port of "0" also keeps the default.
func ParseHostPort(hostport, defHost string, defPort int) (host string, port int) {
	host, port = defHost, defPort
	if hostport == "" {
		return
	}
	pos := strings.LastIndexByte(hostport, ':')
	if pos < 0 {
		return hostport, port
	}
	// ipv4 只有一个冒号
	if strings.IndexByte(hostport, ':') == pos {
		host = hostport[:pos]
		port = parsePort(hostport[pos+1:], port)
		return
	}
	if hostport[0] != '[' {
		return hostport, port
	}
	pos = strings.LastIndex(hostport, "]:")
	if pos < 0 {
		return hostport, port
	}
	host = hostport[1:pos]
	port = parsePort(hostport[pos+2:], port)
	return
}

func parsePort(s string, def int) int {
	if s == "" || s == "0" {
		return def
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return p
}

// ParseEndpoint 解析监听地址, 只有端口时使用any地址
func ParseEndpoint(hostport string) (ip string, port int) {
	pos := strings.LastIndexByte(hostport, ':')
	if pos < 0 {
		port, _ = strconv.Atoi(hostport)
		return AnyAddressForListener(), port
	}
	if pos >= 1 && hostport[0] == '[' && hostport[pos-1] == ']' {
		ip = hostport[1 : pos-1]
	} else {
		ip = hostport[:pos]
	}
	port, _ = strconv.Atoi(hostport[pos+1:])
	return
}

// AnyAddressForListener returns "::" only on ipv6-only hosts.
func AnyAddressForListener() string {
	v4 := probeFamily(unix.AF_INET)
	v6 := probeFamily(unix.AF_INET6)
	if v6 && !v4 {
		return AnyIPv6
	}
	return AnyIPv4
}

func probeFamily(family int) bool {
	fd, err := unix.Socket(family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return false
	}
	unix.Close(fd)
	return true
}

func CheckIPAddrValid(ip string) bool {
	_, err := netip.ParseAddr(ip)
	return err == nil
}

// JoinHostPort 与net.JoinHostPort相同, 端口为int
func JoinHostPort(ip string, port int) string {
	return net.JoinHostPort(ip, strconv.Itoa(port))
}

// DNSResolve resolves host to its first numeric address. network is "ip",
// "ip4" or "ip6".
func DNSResolve(ctx context.Context, host, network string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}
	if network == "" {
		network = "ip"
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, network, host)
	if err != nil {
		return netip.Addr{}, errs.IPInvalid.With(err).Printf("resolve %s", host)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, errs.IPInvalid.Printf("resolve %s, no address", host)
	}
	return addrs[0].Unmap(), nil
}

// UDPAddr 构造监听地址, ip校验失败返回IPInvalid
func UDPAddr(ip string, port int) (*net.UDPAddr, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, errs.IPInvalid.With(err).Printf("ip=%s", ip)
	}
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(addr, uint16(port))), nil
}

func TCPAddr(ip string, port int) (*net.TCPAddr, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, errs.IPInvalid.With(err).Printf("ip=%s", ip)
	}
	return net.TCPAddrFromAddrPort(netip.AddrPortFrom(addr, uint16(port))), nil
}
