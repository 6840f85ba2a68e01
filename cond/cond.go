// Package cond implements a condition variable for cooperative tasks. Notify
// never blocks: each call enqueues one token in a fixed ring and tokens past
// capacity are dropped and counted. Waiters poll the ring.
package cond

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	bclock "github.com/benbjohnson/clock"

	"github.com/fixkme/evcore/ds/ringbuf"
	"github.com/fixkme/evcore/errs"
)

const (
	DefaultCapacity     = ringbuf.DefaultSize
	DefaultPollInterval = 10 * time.Millisecond
)

type Condition struct {
	ring *ringbuf.RingBuffer[uint64]
	seq  atomic.Uint64
	poll time.Duration
	clk  bclock.Clock
}

type Option func(*Condition)

// WithCapacity ring的槽位数, 可用数量为capacity-1
func WithCapacity(capacity int) Option {
	return func(c *Condition) {
		c.ring = ringbuf.New[uint64](capacity)
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Condition) {
		if d > 0 {
			c.poll = d
		}
	}
}

func WithClock(clk bclock.Clock) Option {
	return func(c *Condition) {
		if clk != nil {
			c.clk = clk
		}
	}
}

func New(opts ...Option) *Condition {
	c := &Condition{
		poll: DefaultPollInterval,
		clk:  bclock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ring == nil {
		c.ring = ringbuf.New[uint64](DefaultCapacity)
	}
	return c
}

// Notify enqueues one token, dropped silently when the ring is full.
func (c *Condition) Notify() {
	c.ring.Write(c.seq.Add(1))
}

// Wait blocks until a token can be consumed.
func (c *Condition) Wait() {
	for {
		if _, ok := c.ring.Read(); ok {
			return
		}
		c.pause()
	}
}

// WaitTimeout consumes one token or fails with a timeout error once at least
// d has elapsed. The wait may overshoot d by up to one poll interval.
func (c *Condition) WaitTimeout(d time.Duration) error {
	begin := c.clk.Now()
	for {
		if _, ok := c.ring.Read(); ok {
			return nil
		}
		if elapsed := c.clk.Since(begin); elapsed >= d {
			return errs.Timeout.Printf("cond wait %dms, elapsed %dms", d.Milliseconds(), elapsed.Milliseconds())
		}
		c.pause()
	}
}

func (c *Condition) WaitContext(ctx context.Context) error {
	for {
		if _, ok := c.ring.Read(); ok {
			return nil
		}
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return errs.Timeout.With(ctx.Err()).Printf("cond wait")
			}
			return errs.Quit.With(ctx.Err()).Printf("cond wait")
		default:
		}
		c.pause()
	}
}

// Pending 未消费的通知数
func (c *Condition) Pending() int {
	return c.ring.Count()
}

func (c *Condition) Stats() ringbuf.Stats {
	return c.ring.Stats()
}

func (c *Condition) pause() {
	c.clk.Sleep(c.poll)
	runtime.Gosched()
}
