package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSlotBusy = errors.New("slot is being booked by another request")

// Locker guards the critical section of an appointment write for one
// (professional, instant) slot.
type Locker interface {
	WithSlotLock(ctx context.Context, professionalID int64, at time.Time, fn func(ctx context.Context) error) error
}

type Options struct {
	Addr     string
	Username string
	Password string
	// URL takes precedence over Addr/Username/Password when set.
	URL string
}

// NewRedisClient connects and pings. Callers own the returned client.
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	var ro *redis.Options
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		ro = parsed
	} else {
		ro = &redis.Options{
			Addr:     opts.Addr,
			Username: opts.Username,
			Password: opts.Password,
		}
	}
	ro.ReadTimeout = 2 * time.Second
	ro.WriteTimeout = 2 * time.Second
	ro.PoolSize = 10
	ro.MinIdleConns = 1

	rdb := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) WithSlotLock(ctx context.Context, professionalID int64, at time.Time, fn func(ctx context.Context) error) error {
	key := SlotKey(professionalID, at)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return ErrSlotBusy
	}

	defer func() {
		// release even when ctx is already done
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// SlotKey is UTC nanoseconds so that equal instants in different zones share
// one key.
func SlotKey(professionalID int64, at time.Time) string {
	return "lock:slot:" + strconv.FormatInt(professionalID, 10) + ":" + strconv.FormatInt(at.UTC().UnixNano(), 10)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

// Noop runs fn directly. Used when Redis is not configured; the database
// remains the authoritative guard either way.
type Noop struct{}

func (Noop) WithSlotLock(ctx context.Context, _ int64, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
