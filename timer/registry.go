package timer

import (
	"sort"
	"sync"
	"time"
)

type entry struct {
	event int
	value time.Duration
}

// registry 事件表, 按event升序遍历
type registry struct {
	mu     sync.Mutex
	events map[int]time.Duration
}

func newRegistry() *registry {
	return &registry{events: make(map[int]time.Duration)}
}

func (r *registry) set(event int, v time.Duration) {
	r.mu.Lock()
	r.events[event] = v
	r.mu.Unlock()
}

func (r *registry) del(event int) {
	r.mu.Lock()
	delete(r.events, event)
	r.mu.Unlock()
}

// cas 仅当值未被修改时替换
func (r *registry) cas(event int, old, v time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.events[event]
	if !ok || cur != old {
		return false
	}
	r.events[event] = v
	return true
}

func (r *registry) snapshot() []entry {
	r.mu.Lock()
	out := make([]entry, 0, len(r.events))
	for k, v := range r.events {
		out = append(out, entry{event: k, value: v})
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].event < out[j].event })
	return out
}

func (r *registry) copyMap() map[int]time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := make(map[int]time.Duration, len(r.events))
	for k, v := range r.events {
		m[k] = v
	}
	return m
}
