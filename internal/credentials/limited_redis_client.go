package credentials

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// LimitedRedisClient is the limited set of functionality expected from the redis client by the store.
// This allows for easy mocking and swapping of the client. The universal redis client interface is way too big.
type LimitedRedisClient interface {
	// MGET key [key ...]
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	// MSET key value [key value ...]
	MSet(ctx context.Context, values ...any) *redis.StatusCmd
	// DEL key [key ...]
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}
