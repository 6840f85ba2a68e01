package listener

import (
	"time"

	"github.com/fixkme/evcore/mlog"
)

// TCPStackSize tcp监听协程的栈大小
const TCPStackSize = 1 << 18

type options struct {
	log          mlog.Logger
	recvInterval time.Duration
	socketBuffer int
	multicore    bool
}

type Option func(*options)

func WithLogger(l mlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRecvInterval 每次收包后睡眠, 默认0不睡眠
func WithRecvInterval(d time.Duration) Option {
	return func(o *options) {
		o.recvInterval = d
	}
}

// WithSocketBuffer <= 0 keeps the kernel defaults.
func WithSocketBuffer(size int) Option {
	return func(o *options) {
		o.socketBuffer = size
	}
}

// WithMulticore 仅gnet引擎有效
func WithMulticore(multicore bool) Option {
	return func(o *options) {
		o.multicore = multicore
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		log:          mlog.Default(),
		socketBuffer: DefaultSocketBuffer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
