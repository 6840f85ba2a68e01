package server

import (
	"net"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/stats"
)

const greetTimeout = time.Second

// tcpGreet 把连接交给协程池, 写入问候后关闭
type tcpGreet struct {
	pool     *ants.Pool
	greeting []byte
	counters *stats.Counters
	log      mlog.Logger
}

func (h *tcpGreet) OnTCPClient(conn *net.TCPConn) error {
	h.counters.TCPClients.Add(1)
	err := h.pool.Submit(func() {
		defer conn.Close()
		_ = conn.SetWriteDeadline(time.Now().Add(greetTimeout))
		if _, err := conn.Write(h.greeting); err != nil {
			h.log.Debugf("tcp greet %s: %v", conn.RemoteAddr(), err)
		}
	})
	if err != nil {
		// 池满时拒绝连接, 不影响监听
		h.log.Warnf("tcp pool submit %s: %v", conn.RemoteAddr(), err)
		conn.Close()
	}
	return nil
}
