package credentials

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the two tokens as plain redis strings under a common key prefix.
type RedisStore struct {
	rdb       LimitedRedisClient
	encryptor Encryptor
	keyPrefix string
}

type RedisStoreOption func(*RedisStore) error

func WithRedisConfig(redisConfig config.RedisConfig) RedisStoreOption {
	return func(r *RedisStore) error {
		switch redisConfig.Type {
		case config.DBTypeRedis:
			if len(redisConfig.Addresses) == 0 {
				return fmt.Errorf("at least one redis address is required")
			}
			if redisConfig.IsSentinel {
				r.rdb = redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:       redisConfig.MasterName,
					SentinelAddrs:    redisConfig.Addresses,
					Password:         string(redisConfig.Password),
					DB:               redisConfig.DBIndex,
					SentinelPassword: string(redisConfig.Password),
				})
				return nil
			}
			r.rdb = redis.NewClient(&redis.Options{
				Password: string(redisConfig.Password),
				DB:       redisConfig.DBIndex,
				Addr:     redisConfig.Addresses[0],
			})
			return nil
		case config.DBTypeRedisMock:
			r.rdb = NewMockRedisClient()
			return nil
		default:
			return fmt.Errorf("unrecognized persistence type %v", redisConfig.Type)
		}
	}
}

func WithRedisClient(client LimitedRedisClient) RedisStoreOption {
	return func(r *RedisStore) error {
		r.rdb = client
		return nil
	}
}

func WithEncryption(secretKey string) RedisStoreOption {
	return func(r *RedisStore) error {
		encryptor, err := NewGCMEncryptor(secretKey)
		if err != nil {
			return err
		}
		r.encryptor = encryptor
		return nil
	}
}

func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(r *RedisStore) error {
		r.keyPrefix = prefix
		return nil
	}
}

func NewRedisStore(options ...RedisStoreOption) (*RedisStore, error) {
	store := RedisStore{}
	for _, opt := range options {
		err := opt(&store)
		if err != nil {
			return &RedisStore{}, err
		}
	}
	if store.rdb == nil {
		return &RedisStore{}, fmt.Errorf("redis client is not initialized")
	}
	return &store, nil
}

func (r *RedisStore) key(name string) string {
	if r.keyPrefix == "" {
		return name
	}
	return r.keyPrefix + ":" + name
}

func (r *RedisStore) decrypt(val any) (string, error) {
	s, ok := val.(string)
	if !ok || s == "" {
		return "", nil
	}
	if r.encryptor == nil {
		return s, nil
	}
	return r.encryptor.Decrypt(s)
}

func (r *RedisStore) encrypt(val string) (string, error) {
	if r.encryptor == nil || val == "" {
		return val, nil
	}
	return r.encryptor.Encrypt(val)
}

// Get reads both keys with a single MGET so a concurrent Set is never seen half applied.
func (r *RedisStore) Get(ctx context.Context) (models.CredentialPair, error) {
	vals, err := r.rdb.MGet(ctx, r.key(AccessTokenKey), r.key(RefreshTokenKey)).Result()
	if err != nil {
		slog.Error("REDIS STORE", "message", "could not read the tokens", "error", err)
		return models.CredentialPair{}, err
	}
	if len(vals) != 2 {
		return models.CredentialPair{}, fmt.Errorf("expected 2 values from redis, got %d", len(vals))
	}
	access, err := r.decrypt(vals[0])
	if err != nil {
		slog.Error("REDIS STORE", "message", "could not decrypt the access token", "error", err)
		return models.CredentialPair{}, err
	}
	refresh, err := r.decrypt(vals[1])
	if err != nil {
		slog.Error("REDIS STORE", "message", "could not decrypt the refresh token", "error", err)
		return models.CredentialPair{}, err
	}
	return models.CredentialPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Set writes both keys with a single MSET. Encryption happens first so a failure leaves the old pair intact.
func (r *RedisStore) Set(ctx context.Context, pair models.CredentialPair) error {
	access, err := r.encrypt(pair.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := r.encrypt(pair.RefreshToken)
	if err != nil {
		return err
	}
	return r.rdb.MSet(ctx, r.key(AccessTokenKey), access, r.key(RefreshTokenKey), refresh).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key(AccessTokenKey), r.key(RefreshTokenKey)).Err()
}
