package config

import "fmt"

const (
	CredentialsTypeMemory    string = "memory"
	CredentialsTypeFile      string = "file"
	CredentialsTypeRedis     string = "redis"
	CredentialsTypeRedisMock string = "redis-mock"
)

type TokenEncryptionConfig struct {
	Enabled   bool
	SecretKey RedactedString
}

type CredentialsConfig struct {
	Type            string
	FilePath        string
	KeyPrefix       string
	TokenEncryption TokenEncryptionConfig
}

func (c *CredentialsConfig) Validate(e RunningEnvironment) error {
	switch c.Type {
	case CredentialsTypeMemory, CredentialsTypeRedis:
	case CredentialsTypeRedisMock:
		if e != Development {
			return fmt.Errorf("credentials type cannot be \"redis-mock\" in production")
		}
	case CredentialsTypeFile:
		if c.FilePath == "" {
			return fmt.Errorf("the credentials file path is required for the file credentials type")
		}
	default:
		return fmt.Errorf("unknown credentials type %q (must be one of memory, file, redis, redis-mock)", c.Type)
	}
	if c.TokenEncryption.Enabled && len(c.TokenEncryption.SecretKey) != 32 {
		return fmt.Errorf(
			"token encryption key has to be 32 bytes long, the provided one is %d long",
			len(c.TokenEncryption.SecretKey),
		)
	}
	return nil
}
