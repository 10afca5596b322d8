package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ZSetClient is the subset of *redis.Client the board uses.
type ZSetClient interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
}

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("leaderboard: ping redis: %w", err)
	}

	return rdb, nil
}

// Redis keeps the ranking in a sorted set. Scores are float64, so profits
// are ranked with float precision.
type Redis struct {
	client ZSetClient
	key    string
}

var _ Board = (*Redis)(nil)

func NewRedis(client ZSetClient) *Redis {
	return &Redis{client: client, key: Key}
}

func (r *Redis) Submit(ctx context.Context, sessionID string, profit decimal.Decimal) error {
	z := redis.Z{Score: profit.InexactFloat64(), Member: sessionID}
	if err := r.client.ZAdd(ctx, r.key, z).Err(); err != nil {
		return fmt.Errorf("leaderboard: submit: %w", err)
	}
	return nil
}

func (r *Redis) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	zs, err := r.client.ZRevRangeWithScores(ctx, r.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: top: %w", err)
	}
	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		entries = append(entries, Entry{
			Rank:      i + 1,
			SessionID: id,
			Profit:    decimal.NewFromFloat(z.Score),
		})
	}
	return entries, nil
}

func (r *Redis) Remove(ctx context.Context, sessionID string) error {
	if err := r.client.ZRem(ctx, r.key, sessionID).Err(); err != nil {
		return fmt.Errorf("leaderboard: remove: %w", err)
	}
	return nil
}
