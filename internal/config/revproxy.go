package config

import (
	"fmt"
	"strings"
)

type RevproxyConfig struct {
	// PathPrefix is the local path under which the backend API is exposed
	PathPrefix string
}

func (r *RevproxyConfig) Validate() error {
	if !strings.HasPrefix(r.PathPrefix, "/") || strings.HasSuffix(r.PathPrefix, "/") {
		return fmt.Errorf("the proxy path prefix %q has to start and cannot end with a slash", r.PathPrefix)
	}
	return nil
}
