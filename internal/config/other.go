package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host        string
	Port        int
	RateLimits  RateLimits
	AllowOrigin []string
}

type SentryConfig struct {
	Enabled     bool
	Dsn         RedactedString
	Environment string
	SampleRate  float64
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type MonitoringConfig struct {
	Sentry     SentryConfig
	Prometheus PrometheusConfig
}

type RateLimits struct {
	Enabled bool
	Rate    float64
	Burst   int
}

type KeepaliveConfig struct {
	Enabled             bool
	ExpiryMarginMinutes int
}

func (c KeepaliveConfig) ExpiryMargin() time.Duration {
	return time.Duration(c.ExpiryMarginMinutes) * time.Minute
}

func (c *KeepaliveConfig) Validate() error {
	if c.Enabled && c.ExpiryMarginMinutes <= 0 {
		return fmt.Errorf("keepalive expiry margin minutes (%d) needs to be greater than 0", c.ExpiryMarginMinutes)
	}
	return nil
}

type UploadsConfig struct {
	MaxFileSizeBytes int64
	AllowedTypes     []string
}

func (c *UploadsConfig) Validate() error {
	if c.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("max upload file size (%d) needs to be greater than 0", c.MaxFileSizeBytes)
	}
	if len(c.AllowedTypes) == 0 {
		return fmt.Errorf("at least one allowed upload content type is required")
	}
	return nil
}
