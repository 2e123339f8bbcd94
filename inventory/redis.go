package inventory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// stockKey 是库存哈希在 Redis 中的键。
const stockKey = "optiblend:stock"

// adjustScript 原子地应用一批增量并把余量钳制为非负。
// ARGV 为 (field, delta) 交替排列。
var adjustScript = redis.NewScript(`
local key = KEYS[1]
for i = 1, #ARGV, 2 do
  local cur = tonumber(redis.call('HGET', key, ARGV[i])) or 0
  local new = cur + tonumber(ARGV[i+1])
  if new < 0 then new = 0 end
  redis.call('HSET', key, ARGV[i], new)
end
return redis.status_reply('OK')
`)

// RedisStore 是基于 Redis 哈希的库存实现。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建一个 Redis 库存存储。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Snapshot 实现 Store 接口。
func (s *RedisStore) Snapshot(ctx context.Context) (map[string]float64, error) {
	raw, err := s.client.HGetAll(ctx, stockKey).Result()
	if err != nil {
		return nil, fmt.Errorf("inventory snapshot: %w", err)
	}

	stock := make(map[string]float64, len(raw))
	for name, v := range raw {
		qty, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("inventory snapshot: corrupt value for %s: %w", name, err)
		}
		stock[name] = qty
	}

	return stock, nil
}

// Get 实现 Store 接口。
func (s *RedisStore) Get(ctx context.Context, name string) (float64, error) {
	v, err := s.client.HGet(ctx, stockKey, name).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("inventory get: %w", err)
	}

	qty, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("inventory get: corrupt value for %s: %w", name, err)
	}

	return qty, nil
}

// Adjust 实现 Store 接口。钳制逻辑在 Redis 侧以 Lua 脚本原子执行。
func (s *RedisStore) Adjust(ctx context.Context, deltas map[string]float64) (map[string]float64, error) {
	if len(deltas) == 0 {
		return s.Snapshot(ctx)
	}

	argv := make([]any, 0, len(deltas)*2)
	for name, delta := range deltas {
		argv = append(argv, name, delta)
	}

	if err := adjustScript.Run(ctx, s.client, []string{stockKey}, argv...).Err(); err != nil {
		return nil, fmt.Errorf("inventory adjust: %w", err)
	}

	return s.Snapshot(ctx)
}

// Set 实现 Store 接口。
func (s *RedisStore) Set(ctx context.Context, name string, qty float64) error {
	if qty < 0 {
		qty = 0
	}
	if err := s.client.HSet(ctx, stockKey, name, qty).Err(); err != nil {
		return fmt.Errorf("inventory set: %w", err)
	}

	return nil
}

// Seed 实现 Store 接口。存储非空时不做任何写入。
func (s *RedisStore) Seed(ctx context.Context, initial map[string]float64) error {
	n, err := s.client.HLen(ctx, stockKey).Result()
	if err != nil {
		return fmt.Errorf("inventory seed: %w", err)
	}
	if n > 0 {
		return nil
	}

	pairs := make([]any, 0, len(initial)*2)
	for name, qty := range initial {
		pairs = append(pairs, name, qty)
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, stockKey, pairs...).Err(); err != nil {
		return fmt.Errorf("inventory seed: %w", err)
	}

	return nil
}
