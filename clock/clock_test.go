package clock

import (
	"testing"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) *bclock.Mock {
	m := bclock.NewMock()
	m.Set(time.Unix(1700000000, 0))
	SetSource(m)
	t.Cleanup(func() { SetSource(bclock.New()) })
	return m
}

func TestSystemTimeCached(t *testing.T) {
	m := newMock(t)
	first := SystemTime()
	require.Equal(t, time.Duration(1700000000)*time.Second, first)
	require.Equal(t, first, StartupTime())

	m.Add(time.Second)
	require.Equal(t, first, SystemTime(), "cached until updated")
	require.Equal(t, first+time.Second, UpdateSystemTime())
	require.Equal(t, first+time.Second, SystemTime())
	require.Equal(t, first, StartupTime())
}

func TestClockJumpShiftsStartup(t *testing.T) {
	m := newMock(t)
	start := StartupTime()

	m.Add(10 * time.Minute)
	UpdateSystemTime()
	require.Equal(t, start+10*time.Minute, StartupTime())

	m.Set(m.Now().Add(-time.Minute))
	now := UpdateSystemTime()
	require.Equal(t, start+10*time.Minute, StartupTime(), "backward jump keeps startup")
	require.Equal(t, now, SystemTime())
}
