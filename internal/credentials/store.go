// Package credentials persists the access and refresh token pair issued by the notes backend.
package credentials

import (
	"context"
	"fmt"

	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/models"
)

// The two fixed keys the credential pair is persisted under.
const (
	AccessTokenKey  string = "access_token"
	RefreshTokenKey string = "refresh_token"
)

// Store holds at most one credential pair. Get returns an empty pair and no error when nothing is stored.
type Store interface {
	Get(ctx context.Context) (models.CredentialPair, error)
	Set(ctx context.Context, pair models.CredentialPair) error
	Clear(ctx context.Context) error
}

// NewStore selects the backend described by the configuration.
func NewStore(credentialsConfig config.CredentialsConfig, redisConfig config.RedisConfig) (Store, error) {
	switch credentialsConfig.Type {
	case config.CredentialsTypeMemory:
		return NewMemoryStore(), nil
	case config.CredentialsTypeFile:
		store, err := NewFileStore(credentialsConfig.FilePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CredentialsTypeRedis, config.CredentialsTypeRedisMock:
		options := []RedisStoreOption{WithKeyPrefix(credentialsConfig.KeyPrefix)}
		if credentialsConfig.Type == config.CredentialsTypeRedisMock {
			options = append(options, WithRedisClient(NewMockRedisClient()))
		} else {
			options = append(options, WithRedisConfig(redisConfig))
		}
		if credentialsConfig.TokenEncryption.Enabled {
			options = append(options, WithEncryption(string(credentialsConfig.TokenEncryption.SecretKey)))
		}
		store, err := NewRedisStore(options...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unrecognized credentials store type %v", credentialsConfig.Type)
	}
}
