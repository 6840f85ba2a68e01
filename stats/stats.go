// Package stats keeps process wide counters of the event core and reports
// them periodically.
package stats

import (
	"sync/atomic"

	"github.com/fixkme/evcore/ds/ringbuf"
)

type Counters struct {
	UDPPackets   atomic.Int64
	UDPBytes     atomic.Int64
	UDPErrors    atomic.Int64
	TCPClients   atomic.Int64
	Heartbeats   atomic.Int64
	ExpiredPeers atomic.Int64
	Drained      atomic.Int64

	// 通知队列统计, 由持有队列的模块提供
	notify atomic.Pointer[func() ringbuf.Stats]
}

type Snapshot struct {
	UDPPackets    int64 `json:"udp_packets"`
	UDPBytes      int64 `json:"udp_bytes"`
	UDPErrors     int64 `json:"udp_errors"`
	TCPClients    int64 `json:"tcp_clients"`
	Heartbeats    int64 `json:"heartbeats"`
	ExpiredPeers  int64 `json:"expired_peers"`
	Drained       int64 `json:"drained"`
	NotifyWritten int64 `json:"notify_written"`
	NotifyRead    int64 `json:"notify_read"`
	NotifyDropped int64 `json:"notify_dropped"`
	NotifyBacklog int64 `json:"notify_backlog"`
}

func (c *Counters) SetNotifySource(fn func() ringbuf.Stats) {
	c.notify.Store(&fn)
}

func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		UDPPackets:   c.UDPPackets.Load(),
		UDPBytes:     c.UDPBytes.Load(),
		UDPErrors:    c.UDPErrors.Load(),
		TCPClients:   c.TCPClients.Load(),
		Heartbeats:   c.Heartbeats.Load(),
		ExpiredPeers: c.ExpiredPeers.Load(),
		Drained:      c.Drained.Load(),
	}
	if fn := c.notify.Load(); fn != nil && *fn != nil {
		rs := (*fn)()
		s.NotifyWritten = int64(rs.Written)
		s.NotifyRead = int64(rs.Read)
		s.NotifyDropped = int64(rs.Overwritten)
		s.NotifyBacklog = int64(rs.Count)
	}
	return s
}

// Fields 展开为redis hash的字段
func (s Snapshot) Fields() map[string]any {
	return map[string]any{
		"udp_packets":    s.UDPPackets,
		"udp_bytes":      s.UDPBytes,
		"udp_errors":     s.UDPErrors,
		"tcp_clients":    s.TCPClients,
		"heartbeats":     s.Heartbeats,
		"expired_peers":  s.ExpiredPeers,
		"drained":        s.Drained,
		"notify_written": s.NotifyWritten,
		"notify_read":    s.NotifyRead,
		"notify_dropped": s.NotifyDropped,
		"notify_backlog": s.NotifyBacklog,
	}
}
