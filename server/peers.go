package server

import (
	"sync"
	"time"

	"github.com/fixkme/evcore/timer"
)

// peerTable 记录活跃的udp对端, 每个对端对应DynamicTimer的一个事件
type peerTable struct {
	mu      sync.Mutex
	byKey   map[string]int
	byEvent map[int]string
	nextID  int
	idle    *timer.DynamicTimer
	timeout time.Duration
}

func newPeerTable(timeout time.Duration) *peerTable {
	return &peerTable{
		byKey:   make(map[string]int),
		byEvent: make(map[int]string),
		timeout: timeout,
	}
}

// touch 刷新对端的超时时间, 返回是否是新对端
func (p *peerTable) touch(key string) bool {
	p.mu.Lock()
	ev, ok := p.byKey[key]
	if !ok {
		p.nextID++
		ev = p.nextID
		p.byKey[key] = ev
		p.byEvent[ev] = key
	}
	p.mu.Unlock()
	if p.idle != nil {
		p.idle.TickAfter(ev, p.timeout)
	}
	return !ok
}

// expire DynamicTimer回调, 删除超时的对端
func (p *peerTable) expire(event int) (string, bool) {
	p.mu.Lock()
	key, ok := p.byEvent[event]
	if ok {
		delete(p.byEvent, event)
		delete(p.byKey, key)
	}
	p.mu.Unlock()
	if ok && p.idle != nil {
		p.idle.Untick(event)
	}
	return key, ok
}

func (p *peerTable) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byKey)
}
