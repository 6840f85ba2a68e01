package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpinLockCounter(t *testing.T) {
	l := NewSpinLock()
	n := 0
	wg := sync.WaitGroup{}
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				l.Lock()
				n++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 8000, n)
}

func TestTryLock(t *testing.T) {
	var l SpinLock
	require.True(t, l.TryLock())
	require.False(t, l.TryLock())
	l.Unlock()
	require.True(t, l.TryLock())
}
