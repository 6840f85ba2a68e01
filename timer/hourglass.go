package timer

import (
	"sync/atomic"
	"time"

	"github.com/fixkme/evcore/coroutine"
	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/mlog"
)

// HourGlass 固定精度的多事件定时器. 每个周期按event升序检查所有事件,
// 累计时间是interval的整数倍时回调, 然后累计时间加一个精度并睡眠一个精度.
// 累计时间不按实际睡眠校准, 长时间运行会有漂移.
type HourGlass struct {
	label      string
	handler    HourGlassHandler
	resolution time.Duration
	ticks      *registry
	elapsed    atomic.Int64
	task       *coroutine.Task
	log        mlog.Logger
}

func NewHourGlass(label string, h HourGlassHandler, resolution time.Duration, opts ...Option) *HourGlass {
	o := newOptions(opts)
	hg := &HourGlass{
		label:      label,
		handler:    h,
		resolution: resolution,
		ticks:      newRegistry(),
		log:        o.log,
	}
	hg.task = coroutine.New("hourglass-"+label, coroutine.HandlerFunc(hg.cycle), o.taskOptions()...)
	return hg
}

// Tick 注册事件0
func (h *HourGlass) Tick(interval time.Duration) error {
	return h.TickEvent(0, interval)
}

// TickEvent registers or replaces event. interval must be a multiple of the
// resolution; 0 fires every cycle.
func (h *HourGlass) TickEvent(event int, interval time.Duration) error {
	if h.resolution > 0 && interval%h.resolution != 0 {
		return &errs.IntervalError{Interval: interval, Resolution: h.resolution}
	}
	h.ticks.set(event, interval)
	return nil
}

func (h *HourGlass) Untick(event int) {
	h.ticks.del(event)
}

// Events 当前注册的事件快照
func (h *HourGlass) Events() map[int]time.Duration {
	return h.ticks.copyMap()
}

func (h *HourGlass) Start() error {
	return h.task.Start()
}

func (h *HourGlass) Stop() {
	h.task.Stop()
}

func (h *HourGlass) Done() <-chan struct{} {
	return h.task.Done()
}

func (h *HourGlass) Err() error {
	return h.task.Err()
}

func (h *HourGlass) Label() string {
	return h.label
}

func (h *HourGlass) Resolution() time.Duration {
	return h.resolution
}

// Elapsed 累计经过的周期时间
func (h *HourGlass) Elapsed() time.Duration {
	return time.Duration(h.elapsed.Load())
}

func (h *HourGlass) cycle(t *coroutine.Task) error {
	for {
		if err := t.Pull(); err != nil {
			return errs.Wrap(err, "quit")
		}

		tick := h.Elapsed()
		for _, e := range h.ticks.snapshot() {
			if e.value != 0 && tick%e.value != 0 {
				continue
			}
			if err := h.handler.Notify(e.event, e.value, tick); err != nil {
				return errs.Wrap(err, "notify")
			}
		}

		h.elapsed.Add(int64(h.resolution))
		if err := t.Sleep(h.resolution); err != nil {
			return errs.Wrap(err, "quit")
		}
	}
}
