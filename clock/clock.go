// Package clock caches the process system time in microseconds and keeps a
// startup time that is shifted forward whenever the wall clock jumps.
package clock

import (
	"sync"
	"time"

	bclock "github.com/benbjohnson/clock"

	"github.com/fixkme/evcore/mlog"
)

// SysTimeResolution 系统时间缓存的精度, 超过1000倍认为时钟跳变
const SysTimeResolution = 300 * time.Millisecond

var (
	mu      sync.Mutex
	source  bclock.Clock = bclock.New()
	cache   time.Duration
	startup time.Duration
)

// SetSource replaces the time source and resets the cache.
func SetSource(c bclock.Clock) {
	mu.Lock()
	defer mu.Unlock()
	source = c
	cache = 0
	startup = 0
}

func Source() bclock.Clock {
	mu.Lock()
	defer mu.Unlock()
	return source
}

// SystemTime 返回缓存的系统时间, 首次调用时初始化
func SystemTime() time.Duration {
	mu.Lock()
	defer mu.Unlock()
	if cache <= 0 {
		return update()
	}
	return cache
}

func StartupTime() time.Duration {
	mu.Lock()
	defer mu.Unlock()
	if startup <= 0 {
		update()
	}
	return startup
}

// UpdateSystemTime samples the source and refreshes the cache.
func UpdateSystemTime() time.Duration {
	mu.Lock()
	defer mu.Unlock()
	return update()
}

func update() time.Duration {
	now := time.Duration(source.Now().UnixMicro()) * time.Microsecond
	if cache <= 0 {
		startup, cache = now, now
		return cache
	}

	diff := now - cache
	if diff < 0 {
		mlog.Warnf("clock jump back, history=%dus, now=%dus, diff=%dus",
			cache.Microseconds(), now.Microseconds(), diff.Microseconds())
	} else if diff > 1000*SysTimeResolution {
		mlog.Warnf("clock jump, history=%dus, now=%dus, diff=%dus",
			cache.Microseconds(), now.Microseconds(), diff.Microseconds())
		startup += diff
	}
	cache = now
	return cache
}
