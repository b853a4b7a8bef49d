package queue

// This file implements a mailbox on top of a Redis list.  A sender
// pushes with a Lua script that only appends while the list is shorter
// than the capacity, so at most one message is ever pending.  A
// receiver pops with BLPOP in short rounds so that context cancellation
// is noticed promptly.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-floor-reservation/internal/codec"
)

// pushIfRoom appends ARGV[1] to KEYS[1] when the list holds fewer than
// ARGV[2] entries.  It returns the new length, or 0 when full.
var pushIfRoom = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[2])
	if redis.call('LLEN', key) < capacity then
		return redis.call('RPUSH', key, ARGV[1])
	end
	return 0
`)

// RedisMailbox is a bounded mailbox stored in a Redis list.
type RedisMailbox struct {
	rdb      *redis.Client
	key      string
	capacity int
	limit    int

	// PollInterval is how long Send waits before retrying a full
	// mailbox.
	PollInterval time.Duration
	// BlockTimeout bounds a single BLPOP round in Receive.
	BlockTimeout time.Duration
}

// NewRedisMailbox returns a mailbox stored under key.  Messages larger
// than limit bytes are refused (zero means codec.DefaultMessageLimit).
func NewRedisMailbox(rdb *redis.Client, key string, limit int) *RedisMailbox {
	if limit <= 0 {
		limit = codec.DefaultMessageLimit
	}
	return &RedisMailbox{
		rdb:          rdb,
		key:          key,
		capacity:     1,
		limit:        limit,
		PollInterval: 20 * time.Millisecond,
		BlockTimeout: time.Second,
	}
}

// NewRedisPair returns the server and client mailboxes on one client.
func NewRedisPair(rdb *redis.Client, serverKey, clientKey string, limit int) Pair {
	return Pair{
		Server: NewRedisMailbox(rdb, serverKey, limit),
		Client: NewRedisMailbox(rdb, clientKey, limit),
	}
}

func (m *RedisMailbox) Send(ctx context.Context, payload []byte) error {
	if len(payload) > m.limit {
		return fmt.Errorf("%w: %d bytes, limit %d", codec.ErrMessageTooLarge, len(payload), m.limit)
	}
	for {
		n, err := pushIfRoom.Run(ctx, m.rdb, []string{m.key}, payload, m.capacity).Int64()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("redis mailbox %s: push: %w", m.key, err)
		}
		if n > 0 {
			return nil
		}
		timer := time.NewTimer(m.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *RedisMailbox) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := m.rdb.BLPop(ctx, m.BlockTimeout, m.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("redis mailbox %s: pop: %w", m.key, err)
		}
		// BLPOP returns [key, value].
		return []byte(res[1]), nil
	}
}

func (m *RedisMailbox) Purge(ctx context.Context) error {
	return m.rdb.Del(ctx, m.key).Err()
}

// Close is a no-op; the Redis client is owned by the caller.
func (m *RedisMailbox) Close() error { return nil }
