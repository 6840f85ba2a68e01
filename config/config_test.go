package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.json")
	data := `{
		"server_id": 7,
		"udp_listen": "127.0.0.1:8000",
		"udp_engine": "gnet",
		"heartbeat_resolution": 50,
		"redis_addr": "127.0.0.1:6379"
	}`
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644))

	envCalled := false
	err := LoadConfig(file, func(c *AppConfig) error {
		envCalled = true
		c.TcpListen = "127.0.0.1:8001"
		return nil
	})
	require.NoError(t, err)
	require.True(t, envCalled)

	require.Equal(t, 7, Config.ServerId)
	require.Equal(t, "127.0.0.1:8000", Config.UdpListen)
	require.Equal(t, "gnet", Config.UdpEngine)
	require.Equal(t, "127.0.0.1:8001", Config.TcpListen)
	require.Equal(t, 50, Config.HeartbeatResolution)
	require.Equal(t, 500, Config.HeartbeatInterval)
	require.Equal(t, "evcore:stats:7", Config.StatsKey)
	require.Equal(t, "info", Config.LogLevel)
	require.Contains(t, Config.JsonFormat(), `"udp_engine": "gnet"`)
}

func TestLoadConfigMissingFile(t *testing.T) {
	require.Error(t, LoadConfig(filepath.Join(t.TempDir(), "none.json"), nil))
}

func TestDefaults(t *testing.T) {
	c := &AppConfig{}
	c.SetDefaults()
	require.Equal(t, "st", c.UdpEngine)
	require.Equal(t, 100, c.HeartbeatResolution)
	require.Equal(t, 1000, c.HeartbeatInterval)
	require.Equal(t, 1024, c.NotifyCapacity)
	require.Equal(t, 1024, c.PoolSize)
	require.Equal(t, "{}", (*AppConfig)(nil).JsonFormat())
}
