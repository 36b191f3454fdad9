package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	repo "app/internal/repository"
)

type entry struct {
	value     string
	expiresAt time.Time // zeroなら無期限
}

// MemoryCacheはTTLCacheのインメモリ実装。
// Redisを立てないテストとローカル実行用。期限切れは参照時に捨てる。
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// テストから時計を差し替える
func (c *MemoryCache) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.getLocked(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) SetWithTTL(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.expiry(ttl),
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.getLocked(key)
	if !ok {
		// 新規作成時だけTTLを付ける
		c.entries[key] = entry{value: "1", expiresAt: c.expiry(ttl)}
		return 1, nil
	}

	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		n = 0
	}
	n++

	e.value = strconv.FormatInt(n, 10)
	c.entries[key] = e
	return n, nil
}

// 呼び出し側がmuを握っている前提。期限切れはここで削除する。
func (c *MemoryCache) getLocked(key string) (entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return entry{}, false
	}
	return e, true
}

func (c *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

var _ repo.TTLCache = (*MemoryCache)(nil)
