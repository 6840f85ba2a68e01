package lock

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const maxBackoff = 16

// SpinLock 临界区很短时使用, 抢锁失败让出调度并指数退避
type SpinLock struct {
	state atomic.Uint32
}

var _ sync.Locker = (*SpinLock)(nil)

func (sl *SpinLock) Lock() {
	backoff := 1
	for !sl.state.CompareAndSwap(0, 1) {
		for i := 0; i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < maxBackoff {
			backoff <<= 1
		}
	}
}

func (sl *SpinLock) TryLock() bool {
	return sl.state.CompareAndSwap(0, 1)
}

func (sl *SpinLock) Unlock() {
	sl.state.Store(0)
}

func NewSpinLock() sync.Locker {
	return new(SpinLock)
}
