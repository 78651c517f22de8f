package services

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"awazgram-server/config"
	"awazgram-server/logger"
)

// TokenBlacklist remembers revoked session token ids until they would have expired anyway.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const blacklistKeyPrefix = "awazgram:revoked:"

type RedisTokenBlacklist struct {
	client *redis.Client
}

func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func (b *RedisTokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKeyPrefix+tokenID, 1, ttl).Err()
}

func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryTokenBlacklist keeps revocations in process; they are lost on restart.
type MemoryTokenBlacklist struct {
	cache *gocache.Cache
}

func NewMemoryTokenBlacklist() *MemoryTokenBlacklist {
	return &MemoryTokenBlacklist{
		cache: gocache.New(time.Hour, 10*time.Minute),
	}
}

func (b *MemoryTokenBlacklist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	b.cache.Set(tokenID, struct{}{}, ttl)
	return nil
}

func (b *MemoryTokenBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, found := b.cache.Get(tokenID)
	return found, nil
}

// NewTokenBlacklist uses Redis when an address is configured and reachable, memory otherwise.
func NewTokenBlacklist(ctx context.Context, cfg config.RedisConfig) TokenBlacklist {
	log := logger.WithComponent("token_blacklist")
	if cfg.Addr == "" {
		log.Info("redis not configured, using in-memory token blacklist")
		return NewMemoryTokenBlacklist()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, falling back to in-memory token blacklist", "addr", cfg.Addr, "error", err)
		_ = client.Close()
		return NewMemoryTokenBlacklist()
	}

	log.Info("using redis token blacklist", "addr", cfg.Addr)
	return NewRedisTokenBlacklist(client)
}
