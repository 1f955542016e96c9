// Package cache keeps the Redis-backed parts of the API: the XP leaderboard sorted set and the
// revoked token list. Redis is optional; callers fall back to the store when it is not configured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/leaderboard"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

const (
	leaderboardKey      = "habitquest:leaderboard"
	leaderboardNamesKey = "habitquest:leaderboard:names"
	revokedPrefix       = "habitquest:revoked:"
)

type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Connect opens a client for addr and pings it.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

// SetScore records the user's current XP in the leaderboard.
func (c *Cache) SetScore(ctx context.Context, userID, username string, xp int) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(xp), Member: userID})
		pipe.HSet(ctx, leaderboardNamesKey, userID, username)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	return nil
}

// Rebuild replaces the leaderboard with users.
func (c *Cache) Rebuild(ctx context.Context, users []*user.User) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardKey, leaderboardNamesKey)
		for _, u := range users {
			pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(u.XP), Member: u.ID})
			pipe.HSet(ctx, leaderboardNamesKey, u.ID, u.Username)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest ranked entries. An empty result means the cache is cold.
func (c *Cache) Top(ctx context.Context, limit int) ([]*leaderboard.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	zs, err := c.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if len(zs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i], _ = z.Member.(string)
	}
	names, err := c.rdb.HMGet(ctx, leaderboardNamesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard names: %w", err)
	}

	entries := make([]*leaderboard.LeaderboardEntry, len(zs))
	for i, z := range zs {
		xp := int(z.Score)
		name, _ := names[i].(string)
		entries[i] = &leaderboard.LeaderboardEntry{
			UserID:   ids[i],
			Username: name,
			XP:       xp,
			Level:    progression.LevelForXP(xp),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

// Position returns the user's entry, or nil if the user is not on the board.
func (c *Cache) Position(ctx context.Context, userID string) (*leaderboard.LeaderboardEntry, error) {
	rank, err := c.rdb.ZRevRank(ctx, leaderboardKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rank: %w", err)
	}
	score, err := c.rdb.ZScore(ctx, leaderboardKey, userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard score: %w", err)
	}
	name, err := c.rdb.HGet(ctx, leaderboardNamesKey, userID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read leaderboard name: %w", err)
	}

	xp := int(score)
	return &leaderboard.LeaderboardEntry{
		UserID:   userID,
		Username: name,
		XP:       xp,
		Level:    progression.LevelForXP(xp),
		Rank:     int(rank) + 1,
	}, nil
}

func (c *Cache) Count(ctx context.Context) (int, error) {
	n, err := c.rdb.ZCard(ctx, leaderboardKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count leaderboard: %w", err)
	}
	return int(n), nil
}

// RevokeToken blocks the token id until ttl passes, after which the token has expired anyway.
func (c *Cache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, revokedPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}
