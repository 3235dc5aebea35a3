package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/averen/sigil/internal/core"
)

type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Token    TokenConfig       `yaml:"token"`
	Users    []UserConfig      `yaml:"users"`
	Policies []core.Policy     `yaml:"policies"`
	Routes   map[string]string `yaml:"routes"`
	Audit    AuditConfig       `yaml:"audit"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// TokenConfig supplies the issuer/verifier construction parameters. The
// signing key is shared between both; rotating it invalidates every
// outstanding token.
type TokenConfig struct {
	SigningKey string `yaml:"signing_key"`

	// SigningKeyFile is read at load time as an alternative to an inline key.
	SigningKeyFile string `yaml:"signing_key_file"`

	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`

	DefaultExpiryMinutes int `yaml:"default_expiry_minutes"`

	// LeewaySeconds is the clock skew allowance applied to expiry checks.
	LeewaySeconds int `yaml:"leeway_seconds"`
}

// UserConfig is one entry of the static user store. Kept loosely typed and
// decoded by the credentials package, so alternative store backends can carry
// their own fields.
type UserConfig map[string]any

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
	Path    string `yaml:"path"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Token.SigningKey != "" && c.Token.SigningKeyFile != "" {
		return fmt.Errorf("token config has both signing_key and signing_key_file set")
	}
	if c.Token.SigningKeyFile != "" {
		data, err := os.ReadFile(c.Token.SigningKeyFile)
		if err != nil {
			return fmt.Errorf("reading signing key file: %w", err)
		}
		c.Token.SigningKey = string(data)
	}
	if c.Token.SigningKey == "" {
		return fmt.Errorf("token config missing signing_key")
	}
	if c.Token.Issuer == "" {
		return fmt.Errorf("token config missing issuer")
	}
	if c.Token.Audience == "" {
		return fmt.Errorf("token config missing audience")
	}
	if c.Token.DefaultExpiryMinutes <= 0 {
		c.Token.DefaultExpiryMinutes = 60
	}
	if c.Token.LeewaySeconds < 0 {
		return fmt.Errorf("token config has negative leeway_seconds")
	}

	policyNames := make(map[string]struct{})
	for idx, p := range c.Policies {
		if p.Name == "" {
			return fmt.Errorf("policy at index %d has empty name", idx)
		}
		if _, exists := policyNames[p.Name]; exists {
			return fmt.Errorf("policy name '%s' is not unique", p.Name)
		}
		policyNames[p.Name] = struct{}{}
	}

	// a route referencing an unknown policy is a startup-time error, not a
	// deferred runtime failure
	for route, policyName := range c.Routes {
		if policyName == "" {
			return fmt.Errorf("route '%s' has empty policy name", route)
		}
		if _, known := policyNames[policyName]; !known {
			return fmt.Errorf("route '%s' references unknown policy '%s'", route, policyName)
		}
	}

	switch c.Audit.Type {
	case "", "memory", "file":
	default:
		return fmt.Errorf("unknown audit type '%s'", c.Audit.Type)
	}
	if c.Audit.Enabled && c.Audit.Type == "file" && c.Audit.Path == "" {
		return fmt.Errorf("file audit enabled but no path configured")
	}

	return nil
}

// DefaultExpiry returns the configured default token lifetime.
func (c *TokenConfig) DefaultExpiry() time.Duration {
	return time.Duration(c.DefaultExpiryMinutes) * time.Minute
}

// Leeway returns the configured clock skew allowance.
func (c *TokenConfig) Leeway() time.Duration {
	return time.Duration(c.LeewaySeconds) * time.Second
}
