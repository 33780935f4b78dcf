package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akrammlh02/elearning-backend/internal/config"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

// ErrCacheDisabled is returned by the cache helpers when Redis is not reachable.
var ErrCacheDisabled = errors.New("cache disabled")

func InitRedis() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	if _, err := client.Ping(Ctx).Result(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis. Caching and token revocation will be disabled.")
		Redis = nil
		return
	}
	Redis = client
	logger.Info().Str("addr", config.AppConfig.RedisAddr).Msg("Connected to Redis")
}

// Rate Limiting
func CheckRateLimit(key string, limit int, duration time.Duration) (bool, error) {
	if Redis == nil {
		return true, nil
	}
	rlKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := Redis.Incr(Ctx, rlKey).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		Redis.Expire(Ctx, rlKey, duration)
	}

	return count <= int64(limit), nil
}

// Caching
func CacheSet(key string, value interface{}, expiration time.Duration) error {
	if Redis == nil {
		return ErrCacheDisabled
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Redis.Set(Ctx, key, payload, expiration).Err()
}

func CacheGet(key string, dest interface{}) error {
	if Redis == nil {
		return ErrCacheDisabled
	}
	val, err := Redis.Get(Ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func CacheInvalidate(pattern string) error {
	if Redis == nil {
		return nil
	}
	iter := Redis.Scan(Ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(Ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return Redis.Del(Ctx, keys...).Err()
	}
	return nil
}

// Token revocation

func BlacklistToken(jti string, ttl time.Duration) error {
	if Redis == nil {
		return ErrCacheDisabled
	}
	return Redis.Set(Ctx, "token_blacklist:"+jti, "1", ttl).Err()
}

func IsTokenBlacklisted(jti string) bool {
	if Redis == nil || jti == "" {
		return false
	}
	n, err := Redis.Exists(Ctx, "token_blacklist:"+jti).Result()
	if err != nil {
		return false
	}
	return n > 0
}
