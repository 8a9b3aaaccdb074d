package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultExpirySentinel is the detail the backend sends with a 401 when the access token has expired.
// It has to match the backend byte for byte.
const DefaultExpirySentinel string = "Token has expired"

type APIConfig struct {
	// BaseURL is the versioned API root, e.g. https://notes.example.com/api/v1
	BaseURL *url.URL
	// SocialBaseURL is the host serving the social login and code exchange endpoints
	SocialBaseURL         *url.URL
	RefreshPath           string
	ExpirySentinel        string
	RefreshTimeoutSeconds int
	RequestTimeoutSeconds int
}

func (c APIConfig) RefreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutSeconds) * time.Second
}

func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *APIConfig) Validate() error {
	if c.BaseURL == nil {
		return fmt.Errorf("the api config is missing the base url of the notes backend")
	}
	if c.BaseURL.Scheme != "http" && c.BaseURL.Scheme != "https" {
		return fmt.Errorf("the api base url scheme has to be http or https, got %q", c.BaseURL.Scheme)
	}
	if !strings.HasPrefix(c.RefreshPath, "/") {
		return fmt.Errorf("the refresh path %q has to start with a slash", c.RefreshPath)
	}
	if c.ExpirySentinel == "" {
		return fmt.Errorf("the expiry sentinel cannot be empty")
	}
	if c.RefreshTimeoutSeconds <= 0 {
		return fmt.Errorf("refresh timeout seconds (%d) needs to be greater than 0", c.RefreshTimeoutSeconds)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request timeout seconds (%d) cannot be negative", c.RequestTimeoutSeconds)
	}
	return nil
}
