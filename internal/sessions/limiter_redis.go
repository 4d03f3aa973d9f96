package sessions

import (
	"context"
	"time"

	"booking-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter enforces the per-room active session cap through an atomic
// counter in Redis. The TTL keeps counters from leaking when a process dies
// before Close runs.
type RedisLimiter struct {
	rdb *redis.Client
	cap int
	ttl time.Duration
}

func NewRedisLimiter(rdb *redis.Client, cap int, ttl time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, cap: cap, ttl: ttl}
}

func (l *RedisLimiter) key(roomName string) string {
	return "sessions:" + roomName
}

func (l *RedisLimiter) Acquire(ctx context.Context, roomName string) (bool, error) {
	return utils.AcquireSessionCap(ctx, l.rdb, l.key(roomName), l.cap, l.ttl)
}

func (l *RedisLimiter) Release(ctx context.Context, roomName string) error {
	return utils.ReleaseSessionCap(ctx, l.rdb, l.key(roomName))
}
