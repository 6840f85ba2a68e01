package ringbuf

import (
	"sync"

	"github.com/fixkme/evcore/lock"
)

const DefaultSize = 1024

// RingBuffer 固定大小的环形缓冲, size个槽位只用size-1个:
// read==write为空, write+1==read为满, 满时拒绝写入并计数
type RingBuffer[T any] struct {
	mu    sync.Locker
	slots []T
	read  int
	write int
	zero  T

	written     uint64
	readn       uint64
	overwritten uint64
}

type Stats struct {
	Written     uint64 `json:"written"` // 写入尝试次数, 含被拒绝的
	Read        uint64 `json:"read"`
	Overwritten uint64 `json:"overwritten"`
	Count       int    `json:"count"`
}

func New[T any](size int) *RingBuffer[T] {
	if size <= 0 {
		size = DefaultSize
	} else if size < 2 {
		size = 2
	}
	return &RingBuffer[T]{
		mu:    lock.NewSpinLock(),
		slots: make([]T, size),
	}
}

// Cap 可用槽位数
func (r *RingBuffer[T]) Cap() int {
	return len(r.slots) - 1
}

func (r *RingBuffer[T]) Write(v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written++
	next := (r.write + 1) % len(r.slots)
	if next == r.read {
		r.overwritten++
		return false
	}
	r.slots[r.write] = v
	r.write = next
	return true
}

func (r *RingBuffer[T]) Read() (v T, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.read == r.write {
		return
	}
	v = r.slots[r.read]
	r.slots[r.read] = r.zero
	r.read = (r.read + 1) % len(r.slots)
	r.readn++
	return v, true
}

// Peek 读取队头但不移动读游标
func (r *RingBuffer[T]) Peek() (v T, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.read == r.write {
		return
	}
	return r.slots[r.read], true
}

func (r *RingBuffer[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count()
}

func (r *RingBuffer[T]) count() int {
	n := len(r.slots)
	return (r.write + n - r.read) % n
}

func (r *RingBuffer[T]) IsEmpty() bool {
	return r.Count() == 0
}

// Drain pops every buffered value into fn, returns how many were popped.
func (r *RingBuffer[T]) Drain(fn func(T)) int {
	n := 0
	for {
		v, ok := r.Read()
		if !ok {
			return n
		}
		if fn != nil {
			fn(v)
		}
		n++
	}
}

func (r *RingBuffer[T]) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Written:     r.written,
		Read:        r.readn,
		Overwritten: r.overwritten,
		Count:       r.count(),
	}
}
