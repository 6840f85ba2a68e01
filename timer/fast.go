package timer

import (
	"reflect"
	"sync"
	"time"

	"github.com/fixkme/evcore/coroutine"
	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/mlog"
)

// FastTimer 共享的高频定时器, 每个周期按订阅顺序通知所有订阅者
type FastTimer struct {
	label    string
	interval time.Duration
	mu       sync.Mutex
	handlers []FastTimerHandler
	opts     *options
	task     *coroutine.Task
	log      mlog.Logger
}

func NewFastTimer(label string, interval time.Duration, opts ...Option) *FastTimer {
	o := newOptions(opts)
	return &FastTimer{
		label:    label,
		interval: interval,
		opts:     o,
		log:      o.log,
	}
}

// SetStackSize takes effect on the next Start.
func (f *FastTimer) SetStackSize(size int) {
	f.mu.Lock()
	f.opts.stackSize = size
	f.mu.Unlock()
}

func (f *FastTimer) Start() error {
	f.mu.Lock()
	if f.task != nil {
		f.mu.Unlock()
		return errs.CoroutineStarted.Printf("fast timer %s", f.label)
	}
	f.task = coroutine.New("fast-timer-"+f.label, coroutine.HandlerFunc(f.cycle), f.opts.taskOptions()...)
	task := f.task
	f.mu.Unlock()
	return task.Start()
}

func (f *FastTimer) Stop() {
	f.mu.Lock()
	task := f.task
	f.mu.Unlock()
	if task != nil {
		task.Stop()
	}
}

// Done is nil before Start.
func (f *FastTimer) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.task == nil {
		return nil
	}
	return f.task.Done()
}

func (f *FastTimer) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.task == nil {
		return nil
	}
	return f.task.Err()
}

func (f *FastTimer) Interval() time.Duration {
	return f.interval
}

// Subscribe 重复订阅被忽略
func (f *FastTimer) Subscribe(h FastTimerHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.handlers {
		if sameHandler(x, h) {
			return
		}
	}
	f.handlers = append(f.handlers, h)
}

func (f *FastTimer) Unsubscribe(h FastTimerHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, x := range f.handlers {
		if sameHandler(x, h) {
			f.handlers = append(f.handlers[:i:i], f.handlers[i+1:]...)
			return
		}
	}
}

func (f *FastTimer) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

func (f *FastTimer) cycle(t *coroutine.Task) error {
	for {
		if err := t.Pull(); err != nil {
			return errs.Wrap(err, "quit")
		}

		f.mu.Lock()
		handlers := f.handlers
		f.mu.Unlock()

		for _, h := range handlers {
			if err := h.OnTimer(f.interval); err != nil {
				f.log.Debugf("fast timer %s ignore subscriber error: %v", f.label, err)
			}
		}

		if err := t.Sleep(f.interval); err != nil {
			return errs.Wrap(err, "quit")
		}
	}
}

// sameHandler 函数类型不可比较, 按函数指针判断
func sameHandler(a, b FastTimerHandler) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true
	}
	if ta.Comparable() {
		return a == b
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return false
}
