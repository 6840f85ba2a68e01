package timer

import (
	"time"

	bclock "github.com/benbjohnson/clock"

	"github.com/fixkme/evcore/clock"
	"github.com/fixkme/evcore/coroutine"
	"github.com/fixkme/evcore/errs"
)

// Never 未设置超时
const Never time.Duration = -1

// DynamicTimer 绝对时间到期的一次性定时器, 到期后置为Never再回调,
// 需要重新Tick才会再次触发
type DynamicTimer struct {
	label      string
	handler    DynamicTimerHandler
	resolution time.Duration
	deadlines  *registry
	task       *coroutine.Task
	// nil时使用clock包缓存的系统时间
	clk bclock.Clock
}

func NewDynamicTimer(label string, h DynamicTimerHandler, resolution time.Duration, opts ...Option) *DynamicTimer {
	o := newOptions(opts)
	dt := &DynamicTimer{
		label:      label,
		handler:    h,
		resolution: resolution,
		deadlines:  newRegistry(),
		clk:        o.clk,
	}
	dt.task = coroutine.New("dynamic-timer-"+label, coroutine.HandlerFunc(dt.cycle), o.taskOptions()...)
	return dt
}

// Tick arms event to fire once the system time reaches expiredAt, in
// microseconds since the Unix epoch. The time comes from the clock given by
// WithClock, or from the clock package when none was given. expiredAt <= 0
// disarms it.
func (d *DynamicTimer) Tick(event int, expiredAt time.Duration) {
	d.deadlines.set(event, expiredAt)
}

// TickAfter 相对当前系统时间设置超时
func (d *DynamicTimer) TickAfter(event int, timeout time.Duration) {
	d.Tick(event, d.systemTime()+timeout)
}

func (d *DynamicTimer) systemTime() time.Duration {
	if d.clk != nil {
		return time.Duration(d.clk.Now().UnixMicro()) * time.Microsecond
	}
	return clock.SystemTime()
}

// now 每轮循环采样一次, 同时刷新clock包的缓存
func (d *DynamicTimer) now() time.Duration {
	if d.clk != nil {
		return d.systemTime()
	}
	return clock.UpdateSystemTime()
}

func (d *DynamicTimer) Untick(event int) {
	d.deadlines.del(event)
}

func (d *DynamicTimer) Deadlines() map[int]time.Duration {
	return d.deadlines.copyMap()
}

func (d *DynamicTimer) Start() error {
	return d.task.Start()
}

func (d *DynamicTimer) Stop() {
	d.task.Stop()
}

func (d *DynamicTimer) Done() <-chan struct{} {
	return d.task.Done()
}

func (d *DynamicTimer) Err() error {
	return d.task.Err()
}

func (d *DynamicTimer) Label() string {
	return d.label
}

func (d *DynamicTimer) cycle(t *coroutine.Task) error {
	for {
		if err := t.Pull(); err != nil {
			return errs.Wrap(err, "quit")
		}

		now := d.now()
		for _, e := range d.deadlines.snapshot() {
			if e.value <= 0 || now < e.value {
				continue
			}
			// 回调期间可能被重新Tick, 只重置未变化的
			if !d.deadlines.cas(e.event, e.value, Never) {
				continue
			}
			if err := d.handler.Notify(e.event, now); err != nil {
				return errs.Wrap(err, "notify")
			}
		}

		if err := t.Sleep(d.resolution); err != nil {
			return errs.Wrap(err, "quit")
		}
	}
}
