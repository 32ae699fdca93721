// Package counter allocates unique click ids for messenger buttons.
//
// Click ids are short numeric tokens carried through the messenger
// deep link and echoed back by the bot, tying a confirmation to the
// click that produced it.
package counter

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okian/leadgate/pkg/logger"
)

// Default counter configuration constants.
const (
	defaultCounterKey   = "click_id_counter"
	defaultCounterStart = 999
	pingTimeout         = 2 * time.Second
	fallbackIDLength    = 12
)

// Allocator hands out click ids.
type Allocator interface {
	// Next returns a fresh click id. It never fails: if the backend is
	// unavailable a random id is issued instead so the click path stays up.
	Next(ctx context.Context) string
}

// RedisAllocator issues monotonically increasing numeric ids from a
// shared Redis counter, so ids stay unique across replicas.
type RedisAllocator struct {
	client *redis.Client
	key    string
	logger logger.Logger
}

// NewRedisAllocator connects to Redis and seeds the counter so the
// first allocated id is start+1.
func NewRedisAllocator(ctx context.Context, addr, password string, db int, key string, start int64) (*RedisAllocator, error) {
	if key == "" {
		key = defaultCounterKey
	}
	if start <= 0 {
		start = defaultCounterStart
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	// Seed only when the key is absent so restarts never rewind the counter.
	if err := client.SetNX(ctx, key, start, 0).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisAllocator{
		client: client,
		key:    key,
		logger: logger.Get().Named("counter"),
	}, nil
}

// Next returns the next counter value, falling back to a random id if
// Redis is unreachable.
func (a *RedisAllocator) Next(ctx context.Context) string {
	n, err := a.client.Incr(ctx, a.key).Result()
	if err != nil {
		a.logger.Warn(ctx, "redis counter unavailable, issuing random click id", logger.Error(err))
		return randomID()
	}
	return strconv.FormatInt(n, 10)
}

// Close releases the Redis connection.
func (a *RedisAllocator) Close() error {
	return a.client.Close()
}

// RandomAllocator issues random hex ids. Used when Redis is not
// configured; ids are unique but carry no ordering.
type RandomAllocator struct{}

// Next returns a random id.
func (RandomAllocator) Next(_ context.Context) string {
	return randomID()
}

func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:fallbackIDLength]
}
