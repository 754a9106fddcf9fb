package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisChunkCacheRepository struct {
	redis *redis.Client
}

func NewRedisChunkCacheRepository(redisClient *redis.Client) *RedisChunkCacheRepository {
	return &RedisChunkCacheRepository{redis: redisClient}
}

func chunkCacheKey(taskID string) string {
	return fmt.Sprintf("upload:%s:chunks", taskID)
}

func (r *RedisChunkCacheRepository) IsChunkUploaded(ctx context.Context, taskID string, chunkIndex int) (bool, error) {
	return r.redis.SIsMember(ctx, chunkCacheKey(taskID), chunkIndex).Result()
}

func (r *RedisChunkCacheRepository) AddChunk(ctx context.Context, taskID string, chunkIndex int, expireSeconds int) error {
	key := chunkCacheKey(taskID)
	if err := r.redis.SAdd(ctx, key, chunkIndex).Err(); err != nil {
		return err
	}
	if expireSeconds > 0 {
		return r.redis.Expire(ctx, key, time.Duration(expireSeconds)*time.Second).Err()
	}
	return nil
}

func (r *RedisChunkCacheRepository) Clear(ctx context.Context, taskID string) error {
	return r.redis.Del(ctx, chunkCacheKey(taskID)).Err()
}
