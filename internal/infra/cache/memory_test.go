package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test: Set/Get/DeleteとTTLでの自然消滅
func TestMemoryCache_SetGetExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	now := time.Now()
	c.SetNowFunc(func() time.Time { return now })

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetWithTTL(ctx, "k", "v", time.Minute))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	//Deleteは存在しないキーでもエラーにしない
	require.NoError(t, c.Delete(ctx, "k"))
}

// Test: Incrementは新規作成時だけTTLを付ける（redisのINCR+EXPIRE NX相当）
func TestMemoryCache_IncrementTTLOnCreate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	now := time.Now()
	c.SetNowFunc(func() time.Time { return now })

	n, err := c.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	//30秒後に加算してもTTLは延びない
	now = now.Add(30 * time.Second)
	n, err = c.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	//最初の作成から1分で消える
	now = now.Add(31 * time.Second)
	n, err = c.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "期限切れ後は1から数え直し")
}

// Test: 並行Incrementで取りこぼしがない
func TestMemoryCache_IncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	const goroutines = 32

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Increment(ctx, "counter", time.Hour)
		}()
	}
	wg.Wait()

	n, err := c.Increment(ctx, "counter", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, goroutines+1, n)
}
