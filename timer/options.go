package timer

import (
	bclock "github.com/benbjohnson/clock"

	"github.com/fixkme/evcore/coroutine"
	"github.com/fixkme/evcore/mlog"
)

type options struct {
	clk       bclock.Clock
	log       mlog.Logger
	stackSize int
}

type Option func(*options)

func WithClock(clk bclock.Clock) Option {
	return func(o *options) {
		o.clk = clk
	}
}

func WithLogger(l mlog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func WithStackSize(size int) Option {
	return func(o *options) {
		o.stackSize = size
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		log:       mlog.Default(),
		stackSize: coroutine.DefaultStackSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) taskOptions() []coroutine.Option {
	return []coroutine.Option{
		coroutine.WithClock(o.clk),
		coroutine.WithLogger(o.log),
		coroutine.WithStackSize(o.stackSize),
	}
}
