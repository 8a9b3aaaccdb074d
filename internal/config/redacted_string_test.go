package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRedactedString(t *testing.T) {
	secret := RedactedString("some-secret-value")

	assert.Equal(t, "<redacted-17-chars>", secret.String())
	assert.Equal(t, "<redacted-17-chars>", fmt.Sprintf("%v", secret))
	assert.Equal(t, "<redacted-17-chars>", fmt.Sprintf("%#v", secret))
	assert.Equal(t, "some-secret-value", string(secret))

	binary, err := secret.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "<redacted-17-chars>", string(binary))
}

func TestRedactedStringInsideConfig(t *testing.T) {
	redis := RedisConfig{Type: DBTypeRedis, Addresses: []string{"127.0.0.1:6379"}, Password: "hunter2"}

	asJSON, err := json.Marshal(redis)
	require.NoError(t, err)
	assert.Contains(t, string(asJSON), "redacted-7-chars")
	assert.NotContains(t, string(asJSON), "hunter2")

	asYAML, err := yaml.Marshal(redis)
	require.NoError(t, err)
	assert.NotContains(t, string(asYAML), "hunter2")

	logs := &bytes.Buffer{}
	slog.New(slog.NewJSONHandler(logs, nil)).Info("loaded config", "redis", redis)
	assert.NotContains(t, logs.String(), "hunter2")
	assert.Contains(t, logs.String(), "<redacted-7-chars>")
}
