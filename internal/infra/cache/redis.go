package cache

import (
	"context"
	"errors"
	"time"

	repo "app/internal/repository"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
}

// 共有キャッシュのRedis実装。
// エラーはそのまま返し、失効/ロックアウトの判定側でfail closedにする。
func NewRedisCache(client *redis.Client) repo.TTLCache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (c *redisCache) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// INCRとEXPIRE(NX)をpipelineで送る。
// TTLはキー作成時の1回だけ付く＝カウント窓は最初の失敗から固定。
func (c *redisCache) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
