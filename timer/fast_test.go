package timer

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/errs"
)

type counter struct {
	n      atomic.Int32
	onCall func(n int32)
}

func (c *counter) OnTimer(time.Duration) error {
	n := c.n.Add(1)
	if c.onCall != nil {
		c.onCall(n)
	}
	return nil
}

func TestFastTimerIsolatesSubscriberErrors(t *testing.T) {
	ft := NewFastTimer("fast", time.Millisecond)

	var failing atomic.Int32
	bad := FastTimerFunc(func(time.Duration) error {
		failing.Add(1)
		return errors.New("always")
	})
	good := &counter{}
	good.onCall = func(n int32) {
		if n == 5 {
			ft.Stop()
		}
	}
	ft.Subscribe(bad)
	ft.Subscribe(good)
	require.NoError(t, ft.Start())

	select {
	case <-ft.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("fast timer did not stop")
	}

	require.Equal(t, int32(5), failing.Load())
	require.Equal(t, int32(5), good.n.Load())
	require.True(t, errs.IsQuit(ft.Err()))
}

func TestFastTimerSubscribeIdempotent(t *testing.T) {
	ft := NewFastTimer("subs", time.Second)
	c := &counter{}
	fn := FastTimerFunc(func(time.Duration) error { return nil })

	ft.Subscribe(c)
	ft.Subscribe(c)
	ft.Subscribe(fn)
	ft.Subscribe(fn)
	require.Equal(t, 2, ft.Subscribers())

	ft.Unsubscribe(c)
	require.Equal(t, 1, ft.Subscribers())
	ft.Unsubscribe(c)
	ft.Unsubscribe(fn)
	require.Zero(t, ft.Subscribers())
}

func TestFastTimerStartTwice(t *testing.T) {
	ft := NewFastTimer("twice", time.Hour)
	ft.SetStackSize(1 << 16)
	require.Nil(t, ft.Done())
	require.NoError(t, ft.Start())
	require.Error(t, ft.Start())
	ft.Stop()
	require.True(t, errs.IsQuit(ft.Err()))
}
