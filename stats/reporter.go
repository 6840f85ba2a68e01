package stats

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fixkme/evcore/mlog"
)

// HashSetter redis.Cmdable的子集
type HashSetter interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisReporter 订阅FastTimer, 每period把计数快照写入redis hash
type RedisReporter struct {
	rdb     HashSetter
	key     string
	period  time.Duration
	ttl     time.Duration
	c       *Counters
	elapsed time.Duration
	log     mlog.Logger
}

func NewRedisReporter(rdb HashSetter, key string, period time.Duration, c *Counters) *RedisReporter {
	return &RedisReporter{
		rdb:    rdb,
		key:    key,
		period: period,
		ttl:    3 * period,
		c:      c,
		log:    mlog.Default(),
	}
}

// OnTimer 在FastTimer协程里调用, 返回的错误只记录
func (r *RedisReporter) OnTimer(interval time.Duration) error {
	r.elapsed += interval
	if r.elapsed < r.period {
		return nil
	}
	r.elapsed = 0
	return r.Report(context.Background())
}

func (r *RedisReporter) Report(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	fields := r.c.Snapshot().Fields()
	fields["updated_at"] = time.Now().Unix()
	if err := r.rdb.HSet(ctx, r.key, fields).Err(); err != nil {
		return err
	}
	if r.ttl > 0 {
		return r.rdb.Expire(ctx, r.key, r.ttl).Err()
	}
	return nil
}
