package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient implements the LimitedRedisClient interface in memory.
// Only suitable for testing and local development, contexts are ignored.
type MockRedisClient struct {
	lock  sync.Mutex
	store map[string]string
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{store: map[string]string{}}
}

func (m *MockRedisClient) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	vals := make([]any, len(keys))
	for i, k := range keys {
		if val, found := m.store[k]; found {
			vals[i] = val
		}
	}
	return redis.NewSliceResult(vals, nil)
}

func (m *MockRedisClient) MSet(_ context.Context, values ...any) *redis.StatusCmd {
	if len(values)%2 != 0 {
		return redis.NewStatusResult("", fmt.Errorf("ERR wrong number of arguments for 'mset' command"))
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	for i := 0; i < len(values); i += 2 {
		key := fmt.Sprint(values[i])
		switch v := values[i+1].(type) {
		case string:
			m.store[key] = v
		case []byte:
			m.store[key] = string(v)
		default:
			m.store[key] = fmt.Sprint(v)
		}
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *MockRedisClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	var deleted int64
	for _, k := range keys {
		if _, found := m.store[k]; found {
			deleted++
		}
		delete(m.store, k)
	}
	return redis.NewIntResult(deleted, nil)
}
