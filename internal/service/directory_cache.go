package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"medical-messenger/internal/domain/entity"

	"github.com/redis/go-redis/v9"
)

const directoryStatsKey = "directory:stats"

// DirectoryCache holds precomputed directory aggregates.
// GetStatistics returns (nil, nil) on a miss.
type DirectoryCache interface {
	GetStatistics(ctx context.Context) (*entity.DoctorStatistics, error)
	SetStatistics(ctx context.Context, stats *entity.DoctorStatistics, ttl time.Duration) error
}

type redisDirectoryCache struct {
	redisClient *redis.Client
}

func NewRedisDirectoryCache(redisClient *redis.Client) DirectoryCache {
	return &redisDirectoryCache{redisClient: redisClient}
}

func (c *redisDirectoryCache) GetStatistics(ctx context.Context) (*entity.DoctorStatistics, error) {
	raw, err := c.redisClient.Get(ctx, directoryStatsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats entity.DoctorStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *redisDirectoryCache) SetStatistics(ctx context.Context, stats *entity.DoctorStatistics, ttl time.Duration) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, directoryStatsKey, raw, ttl).Err()
}
