// Package config loads the security configuration that drives token
// verification: clock skew, caching, key-resolution strategy, local
// certificate mappings, and the key server endpoint.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Key resolver names accepted in the configuration file.
const (
	ResolverX509Certificate = "X509Certificate"
	ResolverJWKS            = "JsonWebKeySet"
)

const defaultClockSkewSeconds = 60

// Config is the root security configuration. It is immutable after
// loading.
type Config struct {
	// EnableVerifyJWT gates token verification in the calling layer.
	EnableVerifyJWT bool `yaml:"enableVerifyJwt"`

	// EnableJWTCache caches verified claims by raw token string.
	EnableJWTCache bool `yaml:"enableJwtCache"`

	// BootstrapFromKeyService skips local certificate loading and
	// obtains every key from the key server.
	BootstrapFromKeyService bool `yaml:"bootstrapFromKeyService"`

	JWT       JWTConfig       `yaml:"jwt"`
	KeyServer KeyServerConfig `yaml:"keyServer"`
}

// JWTConfig configures token verification proper.
type JWTConfig struct {
	// ClockSkewSeconds is the tolerance subtracted from "now" when
	// comparing against the expiration claim.
	ClockSkewSeconds int `yaml:"clockSkewInSeconds"`

	// KeyResolver is ResolverX509Certificate or ResolverJWKS.
	KeyResolver string `yaml:"keyResolver"`

	// Certificates maps kid to a certificate file path for the
	// certificate resolver.
	Certificates map[string]string `yaml:"certificate"`
}

// KeyServerConfig configures the outbound connection to the key-issuing
// server.
type KeyServerConfig struct {
	ServerURL string `yaml:"serverUrl"`

	// VerifyHostname controls TLS certificate and hostname verification
	// on the outbound connection. Disable only for test servers.
	VerifyHostname bool `yaml:"verifyHostname"`

	// TokenKeyPath and SignKeyPath override the default endpoint paths
	// when set.
	TokenKeyPath string `yaml:"tokenKeyPath"`
	SignKeyPath  string `yaml:"signKeyPath"`
}

// Default returns the configuration used when a field is absent from
// the file.
func Default() Config {
	return Config{
		EnableVerifyJWT: true,
		EnableJWTCache:  true,
		JWT: JWTConfig{
			ClockSkewSeconds: defaultClockSkewSeconds,
			KeyResolver:      ResolverX509Certificate,
		},
		KeyServer: KeyServerConfig{
			VerifyHostname: true,
		},
	}
}

// Parse decodes YAML configuration over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse security config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read security config: %w", err)
	}
	return Parse(data)
}

func (c Config) validate() error {
	switch c.JWT.KeyResolver {
	case ResolverX509Certificate, ResolverJWKS:
	default:
		return fmt.Errorf("unrecognized keyResolver %q", c.JWT.KeyResolver)
	}
	if c.JWT.ClockSkewSeconds < 0 {
		return fmt.Errorf("clockSkewInSeconds cannot be negative")
	}
	if c.JWT.KeyResolver == ResolverJWKS && c.KeyServer.ServerURL == "" {
		return fmt.Errorf("keyServer.serverUrl is required for the %s resolver", ResolverJWKS)
	}
	if c.BootstrapFromKeyService && c.KeyServer.ServerURL == "" {
		return fmt.Errorf("keyServer.serverUrl is required when bootstrapFromKeyService is set")
	}
	return nil
}
