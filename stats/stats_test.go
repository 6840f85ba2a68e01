package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/ds/ringbuf"
)

type fakeRedis struct {
	hsets   []map[string]any
	expires []time.Duration
	err     error
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	m := values[0].(map[string]any)
	f.hsets = append(f.hsets, m)
	cmd.SetVal(int64(len(m)))
	return cmd
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires = append(f.expires, expiration)
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func TestSnapshot(t *testing.T) {
	c := &Counters{}
	c.UDPPackets.Add(3)
	c.UDPBytes.Add(300)
	rb := ringbuf.New[int](4)
	for i := 0; i < 5; i++ {
		rb.Write(i)
	}
	c.SetNotifySource(rb.Stats)

	s := c.Snapshot()
	require.Equal(t, int64(3), s.UDPPackets)
	require.Equal(t, int64(300), s.UDPBytes)
	require.Equal(t, int64(5), s.NotifyWritten)
	require.Equal(t, int64(2), s.NotifyDropped)
	require.Equal(t, int64(3), s.NotifyBacklog)
	require.Equal(t, int64(300), s.Fields()["udp_bytes"])
}

func TestRedisReporterPeriod(t *testing.T) {
	f := &fakeRedis{}
	c := &Counters{}
	r := NewRedisReporter(f, "evcore:stats:1", 100*time.Millisecond, c)

	for i := 0; i < 4; i++ {
		require.NoError(t, r.OnTimer(20*time.Millisecond))
	}
	require.Empty(t, f.hsets)

	c.TCPClients.Add(2)
	require.NoError(t, r.OnTimer(20*time.Millisecond))
	require.Len(t, f.hsets, 1)
	require.Equal(t, int64(2), f.hsets[0]["tcp_clients"])
	require.Contains(t, f.hsets[0], "updated_at")
	require.Equal(t, []time.Duration{300 * time.Millisecond}, f.expires)
}

func TestRedisReporterError(t *testing.T) {
	f := &fakeRedis{err: errors.New("connection refused")}
	r := NewRedisReporter(f, "k", time.Millisecond, &Counters{})
	require.ErrorContains(t, r.OnTimer(time.Millisecond), "connection refused")
}
