package timer

import "time"

// HourGlassHandler 固定精度定时器的回调, tick为累计经过的时间
type HourGlassHandler interface {
	Notify(event int, interval, tick time.Duration) error
}

type HourGlassFunc func(event int, interval, tick time.Duration) error

func (f HourGlassFunc) Notify(event int, interval, tick time.Duration) error {
	return f(event, interval, tick)
}

// DynamicTimerHandler 动态定时器的回调, now为当前系统时间
type DynamicTimerHandler interface {
	Notify(event int, now time.Duration) error
}

type DynamicTimerFunc func(event int, now time.Duration) error

func (f DynamicTimerFunc) Notify(event int, now time.Duration) error {
	return f(event, now)
}

// FastTimerHandler 共享定时器的订阅者, 返回的错误只记录不影响其他订阅者
type FastTimerHandler interface {
	OnTimer(interval time.Duration) error
}

type FastTimerFunc func(interval time.Duration) error

func (f FastTimerFunc) OnTimer(interval time.Duration) error {
	return f(interval)
}
