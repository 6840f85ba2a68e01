package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fixkme/evcore/config"
)

func TestOptions(t *testing.T) {
	_, err := Options(nil)
	require.Error(t, err)
	_, err = Options(&config.RedisConfig{})
	require.Error(t, err)

	opt, err := Options(&config.RedisConfig{RedisAddr: "127.0.0.1:6379", RedisDB: 2})
	require.NoError(t, err)
	single := opt.(*redis.Options)
	require.Equal(t, "127.0.0.1:6379", single.Addr)
	require.Equal(t, 2, single.DB)

	opt, err = Options(&config.RedisConfig{RedisMode: RedisMode_Cluster, RedisAddr: "a:1,b:2"})
	require.NoError(t, err)
	require.Equal(t, []string{"a:1", "b:2"}, opt.(*redis.ClusterOptions).Addrs)

	opt, err = Options(&config.RedisConfig{RedisMode: RedisMode_Sentinel, RedisAddr: "s:26379", RedisMasterName: "m"})
	require.NoError(t, err)
	require.Equal(t, "m", opt.(*redis.FailoverOptions).MasterName)
}
