package archivechaine

import (
	"os"
	"strings"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAPIKey  = "ARCHIVECHAIN_API_KEY"
	EnvAPIURL  = "ARCHIVECHAIN_API_URL"
	EnvNetwork = "ARCHIVECHAIN_NETWORK"
)

// Defaults applied when the optional variables are unset.
const (
	DefaultAPIURL  = "https://api.archivechain.org/v1"
	DefaultNetwork = "mainnet"
)

// Config holds the client connection settings.
type Config struct {
	APIKey  string
	APIURL  string
	Network string
}

// ConfigFromEnv builds a Config from the process environment. The
// result is not validated; call Validate before dialing.
func ConfigFromEnv() Config {
	return Config{
		APIKey:  os.Getenv(EnvAPIKey),
		APIURL:  os.Getenv(EnvAPIURL),
		Network: os.Getenv(EnvNetwork),
	}
}

// Validate enforces required settings and fills in defaults. A
// missing API key is a ConfigError so callers fail before any network
// call.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &ConfigError{
			Key:    EnvAPIKey,
			Reason: "API key is required, set it in the environment",
		}
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}

	return nil
}
