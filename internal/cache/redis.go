// Package cache содержит кэш профилей клиентов в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mmeshcher/rsalgados/internal/model"
)

const keyPrefix = "rsalgados:client:"

// ClientCache хранит профиль клиента по идентификатору пользователя.
// Ошибки Redis не прерывают запрос: промах кэша обслуживается из БД.
type ClientCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewClientCache создаёт кэш поверх клиента Redis.
func NewClientCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ClientCache {
	return &ClientCache{rdb: rdb, ttl: ttl, logger: logger}
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// Get возвращает профиль из кэша.
func (c *ClientCache) Get(ctx context.Context, userID uuid.UUID) (*model.Client, bool) {
	val, err := c.rdb.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("client cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var client model.Client
	if err := json.Unmarshal(val, &client); err != nil {
		c.logger.Warn("client cache entry corrupted", zap.String("user_id", userID.String()), zap.Error(err))
		c.rdb.Del(ctx, key(userID))
		return nil, false
	}
	return &client, true
}

// Set сохраняет профиль в кэш на время ttl.
func (c *ClientCache) Set(ctx context.Context, userID uuid.UUID, client *model.Client) {
	data, err := json.Marshal(client)
	if err != nil {
		c.logger.Warn("client cache marshal failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key(userID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("client cache set failed", zap.Error(err))
	}
}

// Invalidate удаляет профиль из кэша.
func (c *ClientCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, key(userID)).Err(); err != nil {
		c.logger.Warn("client cache invalidate failed", zap.Error(err))
	}
}
