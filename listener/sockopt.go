package listener

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/fixkme/evcore/errs"
)

// DefaultSocketBuffer 收发缓冲期望值 10M
const DefaultSocketBuffer = 10 * 1024 * 1024

type bufferResult struct {
	Default int
	Expect  int
	Actual  int
	Err     error
}

// widenBuffer 先读默认值, 设置期望值, 再读实际值(内核可能截断或翻倍)
func widenBuffer(fd int, opt int, expect int) bufferResult {
	r := bufferResult{Expect: expect, Actual: expect}
	r.Default, _ = unix.GetsockoptInt(fd, unix.SOL_SOCKET, opt)
	r.Err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, opt, expect)
	if v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, opt); err == nil {
		r.Actual = v
	}
	return r
}

func setSocketBuffer(conn syscall.Conn, expect int) (snd, rcv bufferResult, err error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return
	}
	err = rc.Control(func(fd uintptr) {
		snd = widenBuffer(int(fd), unix.SO_SNDBUF, expect)
		rcv = widenBuffer(int(fd), unix.SO_RCVBUF, expect)
	})
	return
}

func setCloseExec(conn syscall.Conn) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		return errs.SocketSetOpt.With(err).Printf("closeexec")
	}
	var serr error
	if err = rc.Control(func(fd uintptr) {
		flags, ferr := unix.FcntlInt(fd, unix.F_GETFD, 0)
		if ferr != nil {
			serr = ferr
			return
		}
		_, serr = unix.FcntlInt(fd, unix.F_SETFD, flags|unix.FD_CLOEXEC)
	}); err != nil {
		serr = err
	}
	if serr != nil {
		return errs.SocketSetOpt.With(serr).Printf("closeexec")
	}
	return nil
}

func isCloseExec(conn syscall.Conn) bool {
	rc, err := conn.SyscallConn()
	if err != nil {
		return false
	}
	var set bool
	rc.Control(func(fd uintptr) {
		flags, err := unix.FcntlInt(fd, unix.F_GETFD, 0)
		set = err == nil && flags&unix.FD_CLOEXEC != 0
	})
	return set
}

// connFd 仅用于日志和诊断, 不可脱离conn使用
func connFd(conn syscall.Conn) int {
	if conn == nil {
		return -1
	}
	rc, err := conn.SyscallConn()
	if err != nil {
		return -1
	}
	fd := -1
	rc.Control(func(f uintptr) {
		fd = int(f)
	})
	return fd
}
