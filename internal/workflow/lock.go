package workflow

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/config"
)

const generationLockKey = "shift_planner:generation_lock"

// GenerationLock 基于 redis 的排班生成互斥锁
// 锁带过期时间，避免进程崩溃后永久占用
type GenerationLock struct {
	cfg *config.Config
	rdb *redis.Client
}

func NewGenerationLock(cfg *config.Config, rdb *redis.Client) *GenerationLock {
	return &GenerationLock{
		cfg: cfg,
		rdb: rdb,
	}
}

func (l *GenerationLock) Acquire(ctx context.Context) (bool, error) {
	expiration := time.Duration(l.cfg.Optimizer.LockExpiration) * time.Second
	return l.rdb.SetNX(ctx, generationLockKey, "1", expiration).Result()
}

func (l *GenerationLock) Release(ctx context.Context) error {
	return l.rdb.Del(ctx, generationLockKey).Err()
}
