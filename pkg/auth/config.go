package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds OpenID Connect verification settings.
type Config struct {
	Issuer            string `toml:"issuer"`
	ClientID          string `toml:"client_id"`
	RolesClaim        string `toml:"roles_claim"`
	DepartmentClaim   string `toml:"department_claim"`
	SkipClientIDCheck bool   `toml:"skip_client_id_check"`
	DiscoveryTimeout  string `toml:"discovery_timeout"`
	DiscoveryRetry    string `toml:"discovery_retry"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Issuer            string
	ClientID          string
	RolesClaim        string
	DepartmentClaim   string
	SkipClientIDCheck string
	DiscoveryTimeout  string
	DiscoveryRetry    string
}

// DiscoveryTimeoutDuration returns DiscoveryTimeout as a time.Duration.
func (c *Config) DiscoveryTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DiscoveryTimeout)
	return d
}

// DiscoveryRetryDuration returns the minimum wait between failed discovery
// attempts.
func (c *Config) DiscoveryRetryDuration() time.Duration {
	d, _ := time.ParseDuration(c.DiscoveryRetry)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. SkipClientIDCheck only turns on.
func (c *Config) Merge(overlay *Config) {
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.RolesClaim != "" {
		c.RolesClaim = overlay.RolesClaim
	}
	if overlay.DepartmentClaim != "" {
		c.DepartmentClaim = overlay.DepartmentClaim
	}
	if overlay.SkipClientIDCheck {
		c.SkipClientIDCheck = true
	}
	if overlay.DiscoveryTimeout != "" {
		c.DiscoveryTimeout = overlay.DiscoveryTimeout
	}
	if overlay.DiscoveryRetry != "" {
		c.DiscoveryRetry = overlay.DiscoveryRetry
	}
}

func (c *Config) loadDefaults() {
	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}
	if c.DepartmentClaim == "" {
		c.DepartmentClaim = "department_id"
	}
	if c.DiscoveryTimeout == "" {
		c.DiscoveryTimeout = "10s"
	}
	if c.DiscoveryRetry == "" {
		c.DiscoveryRetry = "30s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.RolesClaim != "" {
		if v := os.Getenv(env.RolesClaim); v != "" {
			c.RolesClaim = v
		}
	}
	if env.DepartmentClaim != "" {
		if v := os.Getenv(env.DepartmentClaim); v != "" {
			c.DepartmentClaim = v
		}
	}
	if env.SkipClientIDCheck != "" {
		if v := os.Getenv(env.SkipClientIDCheck); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.SkipClientIDCheck = b
			}
		}
	}
	if env.DiscoveryTimeout != "" {
		if v := os.Getenv(env.DiscoveryTimeout); v != "" {
			c.DiscoveryTimeout = v
		}
	}
	if env.DiscoveryRetry != "" {
		if v := os.Getenv(env.DiscoveryRetry); v != "" {
			c.DiscoveryRetry = v
		}
	}
}

func (c *Config) validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer required")
	}
	if c.ClientID == "" && !c.SkipClientIDCheck {
		return fmt.Errorf("client_id required unless skip_client_id_check is set")
	}
	for _, d := range []struct {
		key, value string
	}{
		{"discovery_timeout", c.DiscoveryTimeout},
		{"discovery_retry", c.DiscoveryRetry},
	} {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive", d.key)
		}
	}
	return nil
}
