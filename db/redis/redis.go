package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fixkme/evcore/config"
)

const (
	RedisMode_Single   = "single"
	RedisMode_Sentinel = "sentinel"
	RedisMode_Cluster  = "cluster"
)

type RedisImpl struct {
	client  *redis.Client
	cluster *redis.ClusterClient
}

func NewRedis(ctx context.Context, mode string, opts any) (*RedisImpl, error) {
	var err error
	db := &RedisImpl{}
	switch mode {
	case RedisMode_Cluster:
		db.cluster = redis.NewClusterClient(opts.(*redis.ClusterOptions))
		err = db.cluster.Ping(ctx).Err()
	case RedisMode_Sentinel:
		db.client = redis.NewFailoverClient(opts.(*redis.FailoverOptions))
		err = db.client.Ping(ctx).Err()
	default: // 默认single模式
		db.client = redis.NewClient(opts.(*redis.Options))
		err = db.client.Ping(ctx).Err()
	}
	if err != nil {
		db.Stop()
		return nil, err
	}
	return db, nil
}

// Options 根据配置生成对应模式的连接参数
func Options(conf *config.RedisConfig) (any, error) {
	if conf == nil {
		return nil, errors.New("redis config is nil")
	}
	addrs := strings.Split(conf.RedisAddr, ",")
	if len(addrs) < 1 || addrs[0] == "" {
		return nil, fmt.Errorf("redis addr invalid (%s)", conf.RedisAddr)
	}
	switch conf.RedisMode {
	case RedisMode_Cluster:
		return &redis.ClusterOptions{
			Addrs:    addrs,
			Password: conf.RedisPassword,
		}, nil
	case RedisMode_Sentinel:
		return &redis.FailoverOptions{
			MasterName:    conf.RedisMasterName,
			SentinelAddrs: addrs,
			Password:      conf.RedisPassword,
			DB:            conf.RedisDB,
		}, nil
	default:
		return &redis.Options{
			Addr:     addrs[0],
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}, nil
	}
}

func NewFromConfig(conf *config.RedisConfig) (*RedisImpl, error) {
	opt, err := Options(conf)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return NewRedis(ctx, conf.RedisMode, opt)
}

func (db *RedisImpl) Client() *redis.Client {
	return db.client
}

func (db *RedisImpl) ClusterClient() *redis.ClusterClient {
	return db.cluster
}

func (db *RedisImpl) Stop() {
	if db.client != nil {
		db.client.Close()
	}
	if db.cluster != nil {
		db.cluster.Close()
	}
}

func (db *RedisImpl) GetCmdable() redis.Cmdable {
	if db.client != nil {
		return db.client
	}
	if db.cluster != nil {
		return db.cluster
	}
	return nil
}
