// Package coroutine runs one cooperative task on its own goroutine. The task
// body polls Pull at well-defined points and suspends only in Sleep, Yield or
// blocking I/O; Interrupt wakes a sleeping task and makes the next Pull fail
// with a quit error.
package coroutine

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/rs/xid"

	"github.com/fixkme/evcore/errs"
	"github.com/fixkme/evcore/mlog"
)

// DefaultStackSize 与st协程默认栈大小一致, go的栈会自动增长, 仅用于诊断
const DefaultStackSize = 64 * 1024

type Handler interface {
	Cycle(t *Task) error
}

type HandlerFunc func(t *Task) error

func (f HandlerFunc) Cycle(t *Task) error {
	return f(t)
}

type Task struct {
	name      string
	cid       string
	handler   Handler
	clk       bclock.Clock
	log       mlog.Logger
	stackSize int

	started     atomic.Bool
	gid         atomic.Int64
	interrupted chan struct{}
	once        sync.Once
	done        chan struct{}
	err         error

	mu    sync.Mutex
	hooks []func()
}

type Option func(*Task)

func WithClock(clk bclock.Clock) Option {
	return func(t *Task) {
		if clk != nil {
			t.clk = clk
		}
	}
}

func WithLogger(l mlog.Logger) Option {
	return func(t *Task) {
		if l != nil {
			t.log = l
		}
	}
}

func WithStackSize(size int) Option {
	return func(t *Task) {
		t.stackSize = size
	}
}

// WithCID 继承父协程的上下文id
func WithCID(cid string) Option {
	return func(t *Task) {
		if cid != "" {
			t.cid = cid
		}
	}
}

func New(name string, h Handler, opts ...Option) *Task {
	t := &Task{
		name:        name,
		cid:         xid.New().String(),
		handler:     h,
		clk:         bclock.New(),
		log:         mlog.Default(),
		stackSize:   DefaultStackSize,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) CID() string {
	return t.cid
}

func (t *Task) StackSize() int {
	return t.stackSize
}

func (t *Task) Clock() bclock.Clock {
	return t.clk
}

func (t *Task) Start() error {
	if !t.started.CompareAndSwap(false, true) {
		return errs.CoroutineStarted.Printf("coroutine %s", t.name)
	}
	go t.run()
	return nil
}

func (t *Task) run() {
	t.gid.Store(goroutineID())
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			t.err = errs.Unknown.Printf("coroutine %s panic: %v", t.name, r)
			t.log.Errorf("coroutine %s cid=%s panic: %v\n%s", t.name, t.cid, r, debug.Stack())
		}
	}()

	t.log.Debugf("coroutine %s cid=%s started", t.name, t.cid)
	err := t.handler.Cycle(t)
	if err != nil && !errs.IsQuit(err) {
		t.log.Warnf("coroutine %s cid=%s terminated: %v", t.name, t.cid, err)
	} else {
		t.log.Debugf("coroutine %s cid=%s quit", t.name, t.cid)
	}
	t.err = err
}

// OnInterrupt registers fn to run when the task is interrupted, typically to
// unblock pending socket I/O.
func (t *Task) OnInterrupt(fn func()) {
	t.mu.Lock()
	t.hooks = append(t.hooks, fn)
	t.mu.Unlock()
}

// Interrupt requests cancellation without waiting.
func (t *Task) Interrupt() {
	t.once.Do(func() {
		close(t.interrupted)
		t.mu.Lock()
		hooks := t.hooks
		t.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	})
}

// Stop interrupts the task and waits for its body to return. Called from the
// task's own goroutine it only interrupts.
func (t *Task) Stop() {
	t.Interrupt()
	if !t.started.Load() {
		return
	}
	if goroutineID() == t.gid.Load() {
		return
	}
	<-t.done
}

// Pull reports a quit error once the task has been interrupted.
func (t *Task) Pull() error {
	select {
	case <-t.interrupted:
		return errs.Quit.Printf("coroutine %s interrupted", t.name)
	default:
		return nil
	}
}

// Sleep suspends the task for d, returning early with a quit error on interrupt.
func (t *Task) Sleep(d time.Duration) error {
	if d <= 0 {
		t.Yield()
		return t.Pull()
	}
	timer := t.clk.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-t.interrupted:
		return errs.Quit.Printf("coroutine %s interrupted", t.name)
	}
}

func (t *Task) Yield() {
	runtime.Gosched()
}

func (t *Task) Interrupted() <-chan struct{} {
	return t.interrupted
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the value returned by the task body; valid after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Task) Running() bool {
	if !t.started.Load() {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}
