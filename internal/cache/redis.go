package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyeonu91/schoolreserve/config"
	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	schoolsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, schoolsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		schoolsTTL: schoolsTTL,
	}
}

func (c *RedisCache) GetSchools(ctx context.Context) ([]domain.School, error) {
	data, err := c.client.Get(ctx, schoolsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var schools []domain.School
	if err := json.Unmarshal(data, &schools); err != nil {
		return nil, err
	}
	return schools, nil
}

func (c *RedisCache) SetSchools(ctx context.Context, schools []domain.School) error {
	payload, err := json.Marshal(schools)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, schoolsKey(), payload, c.schoolsTTL).Err()
}

// AcquireSlotLock takes a short-lived lock on a (school, type, date) slot so
// concurrent creates for the same slot queue up before hitting the database.
// Correctness does not depend on it; the row locks in the repository do that.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, schoolID int64, t domain.ReserveType, date time.Time, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, slotLockKey(schoolID, t, date), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSlotLock(ctx context.Context, schoolID int64, t domain.ReserveType, date time.Time) error {
	return c.client.Del(ctx, slotLockKey(schoolID, t, date)).Err()
}

func schoolsKey() string {
	return "cache:schools"
}

func slotLockKey(schoolID int64, t domain.ReserveType, date time.Time) string {
	return fmt.Sprintf("lock:school:%d:%s:%s", schoolID, t, date.Format("2006-01-02"))
}
