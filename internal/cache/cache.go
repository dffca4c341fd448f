// Package cache holds the bounded recent-message cache backed by Redis.
// It is a replay accelerator, not a source of truth: the SQL store stays
// authoritative and every failure here is non-fatal to callers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/example/pairchat/internal/metrics"
)

// DefaultCapacity is the per-room entry limit.
const DefaultCapacity = 25

// Entry is the cached snapshot of a message. Its JSON form is also the
// outbound wire frame, so one marshal serves cache, replay and broadcast.
type Entry struct {
	Content    string `json:"message"`
	SenderID   int    `json:"sender_id"`
	SenderName string `json:"sender_username"`
}

type RecentCache struct {
	client   *redis.Client
	capacity int64
	logger   zerolog.Logger
}

// New connects to Redis and returns a cache with the default capacity.
func New(ctx context.Context, redisURL string, logger zerolog.Logger) (*RecentCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RecentCache{
		client:   client,
		capacity: DefaultCapacity,
		logger:   logger,
	}, nil
}

func (c *RecentCache) Close() error {
	return c.client.Close()
}

func (c *RecentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// roomRecentKey returns the key for a room's recent-message list.
func roomRecentKey(roomKey string) string {
	return fmt.Sprintf("chat:%s:recent", roomKey)
}

// Push inserts the entry at the head of the room's list and truncates it
// to capacity. Both commands run in one pipeline so a concurrent push
// cannot leave the list over capacity.
func (c *RecentCache) Push(ctx context.Context, roomKey string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := roomRecentKey(roomKey)
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, 0, c.capacity-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit cached entries, most-recent-first. Entries
// that fail to decode are logged and skipped; a cold or missing list is
// an empty result, not an error.
func (c *RecentCache) Recent(ctx context.Context, roomKey string, limit int) ([]Entry, error) {
	if limit <= 0 || int64(limit) > c.capacity {
		limit = int(c.capacity)
	}

	raw, err := c.client.LRange(ctx, roomRecentKey(roomKey), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	return decodeEntries(raw, roomKey, c.logger), nil
}

func decodeEntries(raw []string, roomKey string, logger zerolog.Logger) []Entry {
	entries := make([]Entry, 0, len(raw))
	for _, data := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			metrics.CacheReplaySkips.Inc()
			logger.Warn().Err(err).Str("room", roomKey).Msg("skipping corrupt cache entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
