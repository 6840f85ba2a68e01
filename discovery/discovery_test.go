package discovery

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/mlog"
)

func nopLogger() mlog.Logger {
	return mlog.NewWriterLogger(io.Discard, mlog.FatalLevel)
}

func TestParseKey(t *testing.T) {
	prefix := servicePrefix("evcore")
	name, id, err := parseKey(prefix, "evcore:service:udp:b748593c-ec50-4b4c-8b4a-21705dd1789f")
	require.NoError(t, err)
	require.Equal(t, "udp", name)
	require.Equal(t, "b748593c-ec50-4b4c-8b4a-21705dd1789f", id)

	_, _, err = parseKey(prefix, "other:service:udp:1")
	require.Error(t, err)
	_, _, err = parseKey(prefix, "evcore:service:udp")
	require.Error(t, err)
}

func TestServiceCache(t *testing.T) {
	c := newServiceCache()
	require.True(t, c.add("udp", "a", "10.0.0.1:8000"))
	require.False(t, c.add("udp", "a", "10.0.0.9:8000"))
	require.True(t, c.add("udp", "b", "10.0.0.2:8000"))
	require.True(t, c.add("udpx", "c", "10.0.0.3:8000"))
	require.Equal(t, 3, c.len())

	addr, err := c.get("UDP:a")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1:8000", addr)

	addr, err = c.get("udp")
	require.NoError(t, err)
	require.Contains(t, []string{"10.0.0.1:8000", "10.0.0.2:8000"}, addr)

	all, err := c.all("udp:whatever")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "10.0.0.1:8000", "b": "10.0.0.2:8000"}, all)

	require.True(t, c.del("udp", "a"))
	require.False(t, c.del("udp", "a"))
	_, err = c.get("udp:a")
	require.ErrorIs(t, err, ErrServiceNotFound)

	_, err = c.all("tcp")
	require.ErrorIs(t, err, ErrServiceNotFound)
}

func TestOnWatchEvent(t *testing.T) {
	e := &etcdImp{
		prefix:   servicePrefix("g"),
		cache:    newServiceCache(),
		regServs: make(map[string]string),
		log:      nopLogger(),
	}
	e.onWatchEvent(eventType_Put, "g:service:tcp:1", "127.0.0.1:9000")
	e.onWatchEvent(eventType_Put, "bad-key", "x")
	addr, err := e.GetService("tcp")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", addr)

	e.onWatchEvent(eventType_Delete, "g:service:tcp:1", "")
	_, err = e.GetService("tcp")
	require.Error(t, err)
}
