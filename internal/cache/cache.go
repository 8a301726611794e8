// Package cache keeps short-lived copies of expensive read models.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const leaderboardKey = "smarttools:leaderboard"

// DefaultLeaderboardTTL bounds how stale a cached leaderboard may be.
const DefaultLeaderboardTTL = 30 * time.Second

// LeaderboardCache stores rendered leaderboards keyed by their limit.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool)
	Set(ctx context.Context, limit int, entries []models.LeaderboardEntry)
	Invalidate(ctx context.Context)
}

// Noop is used when no cache backend is configured.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, int) ([]models.LeaderboardEntry, bool) { return nil, false }

// Set discards the entries.
func (Noop) Set(context.Context, int, []models.LeaderboardEntry) {}

// Invalidate does nothing.
func (Noop) Invalidate(context.Context) {}

// RedisLeaderboard keeps every cached limit as a field of one hash, so a
// single DEL drops them all.
type RedisLeaderboard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLeaderboard connects to addr and verifies the server responds.
func NewRedisLeaderboard(ctx context.Context, addr string, ttl time.Duration) (*RedisLeaderboard, error) {
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return &RedisLeaderboard{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisLeaderboard) Get(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool) {
	raw, err := c.rdb.HGet(ctx, leaderboardKey, strconv.Itoa(limit)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read leaderboard from redis")
		return nil, false
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Warn().Err(err).Msg("Discarding malformed cached leaderboard")
		return nil, false
	}
	return entries, true
}

func (c *RedisLeaderboard) Set(ctx context.Context, limit int, entries []models.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, leaderboardKey, strconv.Itoa(limit), raw)
	pipe.Expire(ctx, leaderboardKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to cache leaderboard in redis")
	}
}

func (c *RedisLeaderboard) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, leaderboardKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate cached leaderboard")
	}
}

// Close releases the redis connection pool.
func (c *RedisLeaderboard) Close() error {
	return c.rdb.Close()
}

var _ LeaderboardCache = (*RedisLeaderboard)(nil)
