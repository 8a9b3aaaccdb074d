// Package config reads and validates the configuration shared by the notes gateway
// server and the notesctl command line client.
package config

type RunningEnvironment string

const (
	Development RunningEnvironment = "development"
	Production  RunningEnvironment = "production"
)

type Config struct {
	RunningEnvironment RunningEnvironment
	DebugMode          bool
	Server             ServerConfig
	API                APIConfig
	Credentials        CredentialsConfig
	Redis              RedisConfig
	Login              LoginConfig
	Revproxy           RevproxyConfig
	Keepalive          KeepaliveConfig
	Uploads            UploadsConfig
	Monitoring         MonitoringConfig
}

func (c *Config) Validate() error {
	err := c.API.Validate()
	if err != nil {
		return err
	}
	err = c.Credentials.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	if c.Credentials.Type == CredentialsTypeRedis || c.Credentials.Type == CredentialsTypeRedisMock {
		err = c.Redis.Validate(c.RunningEnvironment)
		if err != nil {
			return err
		}
	}
	err = c.Login.Validate()
	if err != nil {
		return err
	}
	err = c.Revproxy.Validate()
	if err != nil {
		return err
	}
	err = c.Keepalive.Validate()
	if err != nil {
		return err
	}
	return c.Uploads.Validate()
}
