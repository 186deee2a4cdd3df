package archivechaine

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvAPIURL, "https://api.test.example/v2/")
	t.Setenv(EnvNetwork, "testnet")

	cfg := ConfigFromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "https://api.test.example/v2", cfg.APIURL, "trailing slash is trimmed")
	assert.Equal(t, "testnet", cfg.Network)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{APIKey: "secret"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultNetwork, cfg.Network)
}

func TestConfigMissingAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	cfg := ConfigFromEnv()
	err := cfg.Validate()

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, EnvAPIKey, cerr.Key)
	assert.Contains(t, cerr.Error(), EnvAPIKey)
}

func TestConfigBlankAPIKey(t *testing.T) {
	cfg := Config{APIKey: "   "}
	assert.Error(t, cfg.Validate())
}
