package config

import (
	"fmt"
	"strings"
)

type LoginConfig struct {
	EndpointsBasePath string
	// LoginEntryPath is where the user is sent when the session ends
	LoginEntryPath string
	// AppRedirectURL is where the user lands after a successful social login
	AppRedirectURL string
	// SocialLoginPaths maps a provider ID to the backend path that starts its login flow
	SocialLoginPaths map[string]string
}

func (c *LoginConfig) Validate() error {
	if !strings.HasPrefix(c.EndpointsBasePath, "/") {
		return fmt.Errorf("the login endpoints base path %q has to start with a slash", c.EndpointsBasePath)
	}
	if c.LoginEntryPath == "" {
		return fmt.Errorf("the login entry path cannot be empty")
	}
	for provider, path := range c.SocialLoginPaths {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("the social login path %q of provider %s has to start with a slash", path, provider)
		}
	}
	return nil
}

func (c LoginConfig) SocialProviderIDs() []string {
	output := []string{}
	for id := range c.SocialLoginPaths {
		output = append(output, id)
	}
	return output
}
