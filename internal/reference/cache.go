package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/eduportal/internal/model"
)

// Cache は参照データのキャッシュ。
type Cache interface {
	// Get はキャッシュ済みの一覧を返す。未登録または期限切れの場合はfalseを返す。
	Get(ctx context.Context, key string) ([]model.ReferenceItem, bool, error)
	Set(ctx context.Context, key string, items []model.ReferenceItem, ttl time.Duration) error
}

// RedisCache はRedisをバックエンドとするCache。
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache はRedisCacheを生成する。
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "eduportal:reference:"}
}

// Get はRedisから一覧を取得する。
func (c *RedisCache) Get(ctx context.Context, key string) ([]model.ReferenceItem, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var items []model.ReferenceItem
	if err := json.Unmarshal(value, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return items, true, nil
}

// Set は一覧をTTL付きでRedisに保存する。
func (c *RedisCache) Set(ctx context.Context, key string, items []model.ReferenceItem, ttl time.Duration) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

type memoryEntry struct {
	items     []model.ReferenceItem
	expiresAt time.Time
}

// MemoryCache はプロセス内のCache。REDIS_URL未設定時に使う。
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache はMemoryCacheを生成する。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get はメモリから一覧を取得する。
func (c *MemoryCache) Get(_ context.Context, key string) ([]model.ReferenceItem, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	return cloneItems(entry.items), true, nil
}

// Set は一覧をメモリに保存する。
func (c *MemoryCache) Set(_ context.Context, key string, items []model.ReferenceItem, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		items:     cloneItems(items),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func cloneItems(items []model.ReferenceItem) []model.ReferenceItem {
	out := make([]model.ReferenceItem, len(items))
	copy(out, items)
	return out
}
