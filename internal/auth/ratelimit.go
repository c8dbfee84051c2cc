package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter bounds login attempts per-email using a Redis INCR+EXPIRE
// window, so a brute-force guesser can't outrun the window by spreading
// requests across connections.
type RateLimiter struct {
	redis      *redis.Client
	maxAttempt int
	window     time.Duration
}

// NewRateLimiter builds a login RateLimiter.
func NewRateLimiter(client *redis.Client, maxAttempt int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: client, maxAttempt: maxAttempt, window: window}
}

func (rl *RateLimiter) key(email string) string {
	return fmt.Sprintf("controlplane:login_attempts:%s", email)
}

// Check reports whether email is currently allowed to attempt a login.
func (rl *RateLimiter) Check(ctx context.Context, email string) (bool, error) {
	count, err := rl.redis.Get(ctx, rl.key(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return false, err
	}
	return count < rl.maxAttempt, nil
}

// Record registers a failed login attempt for email, starting the window's
// TTL on the first failure.
func (rl *RateLimiter) Record(ctx context.Context, email string) error {
	key := rl.key(email)
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the attempt counter for email, called on successful login.
func (rl *RateLimiter) Reset(ctx context.Context, email string) error {
	return rl.redis.Del(ctx, rl.key(email)).Err()
}
