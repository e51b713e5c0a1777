package identityinfra

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/identity"
	"github.com/taskforge/taskforge/pkg/kernel"
)

const (
	validSinceKeyPrefix    = "identity:valid-since:"
	loginAttemptsKeyPrefix = "identity:login-attempts:"
)

// RedisRevocationStore keeps the per-subject "tokens valid since" watermark
// in Redis as unix seconds.
type RedisRevocationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocationStore creates a revocation store. The watermark expires
// after ttl; that is safe as long as ttl is at least the refresh token TTL,
// because by then every credential minted before the watermark has expired
// on its own.
func NewRedisRevocationStore(client *redis.Client, ttl time.Duration) identity.RevocationStore {
	return &RedisRevocationStore{client: client, ttl: ttl}
}

func (s *RedisRevocationStore) SetValidSince(ctx context.Context, uid kernel.UserID, t time.Time) error {
	key := validSinceKeyPrefix + uid.String()
	err := s.client.Set(ctx, key, t.Unix(), s.ttl).Err()
	if err != nil {
		return errx.Wrap(err, "failed to record revocation", errx.TypeInternal).
			WithDetail("uid", uid.String())
	}
	return nil
}

func (s *RedisRevocationStore) ValidSince(ctx context.Context, uid kernel.UserID) (time.Time, error) {
	key := validSinceKeyPrefix + uid.String()
	raw, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errx.Wrap(err, "failed to read revocation", errx.TypeInternal)
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, errx.Wrap(err, "corrupt revocation value", errx.TypeInternal).
			WithDetail("value", raw)
	}
	return time.Unix(seconds, 0).UTC(), nil
}

// RedisLoginLimiter counts sign-in attempts per email with a rolling TTL.
type RedisLoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewRedisLoginLimiter creates a limiter allowing maxAttempts per window.
func NewRedisLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) identity.LoginLimiter {
	return &RedisLoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *RedisLoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := loginAttemptsKeyPrefix + email

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, errx.Wrap(err, "failed to count login attempt", errx.TypeInternal)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, errx.Wrap(err, "failed to expire login counter", errx.TypeInternal)
		}
	}

	return count <= int64(l.maxAttempts), nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) error {
	key := loginAttemptsKeyPrefix + email
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return errx.Wrap(err, "failed to reset login counter", errx.TypeInternal)
	}
	return nil
}
