package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// ServerEnv names the environment variables that override ServerConfig.
type ServerEnv struct {
	Host              string
	Port              string
	ReadTimeout       string
	ReadHeaderTimeout string
	WriteTimeout      string
	IdleTimeout       string
	ShutdownTimeout   string
}

var serverEnv = &ServerEnv{
	Host:              "RSUA_SERVER_HOST",
	Port:              "RSUA_SERVER_PORT",
	ReadTimeout:       "RSUA_SERVER_READ_TIMEOUT",
	ReadHeaderTimeout: "RSUA_SERVER_READ_HEADER_TIMEOUT",
	WriteTimeout:      "RSUA_SERVER_WRITE_TIMEOUT",
	IdleTimeout:       "RSUA_SERVER_IDLE_TIMEOUT",
	ShutdownTimeout:   "RSUA_SERVER_SHUTDOWN_TIMEOUT",
}

// ServerConfig holds HTTP listener parameters. Durations are Go duration
// strings.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return durationOf(c.ReadTimeout)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return durationOf(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return durationOf(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return durationOf(c.IdleTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return durationOf(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize(env *ServerEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range c.durations(overlay) {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	defaults := map[*string]string{
		&c.ReadTimeout:       "1m",
		&c.ReadHeaderTimeout: "10s",
		&c.WriteTimeout:      "2m",
		&c.IdleTimeout:       "2m",
		&c.ShutdownTimeout:   "30s",
	}
	for dst, v := range defaults {
		if *dst == "" {
			*dst = v
		}
	}
}

func (c *ServerConfig) loadEnv(env *ServerEnv) {
	if v := os.Getenv(env.Host); env.Host != "" && v != "" {
		c.Host = v
	}
	if v := os.Getenv(env.Port); env.Port != "" && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}

	names := map[*string]string{
		&c.ReadTimeout:       env.ReadTimeout,
		&c.ReadHeaderTimeout: env.ReadHeaderTimeout,
		&c.WriteTimeout:      env.WriteTimeout,
		&c.IdleTimeout:       env.IdleTimeout,
		&c.ShutdownTimeout:   env.ShutdownTimeout,
	}
	for dst, name := range names {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range c.durations(c) {
		if _, err := time.ParseDuration(*f.dst); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	return nil
}

type durationField struct {
	name     string
	dst, src *string
}

// durations pairs each duration field of c with the same field of other.
func (c *ServerConfig) durations(other *ServerConfig) []durationField {
	return []durationField{
		{"read_timeout", &c.ReadTimeout, &other.ReadTimeout},
		{"read_header_timeout", &c.ReadHeaderTimeout, &other.ReadHeaderTimeout},
		{"write_timeout", &c.WriteTimeout, &other.WriteTimeout},
		{"idle_timeout", &c.IdleTimeout, &other.IdleTimeout},
		{"shutdown_timeout", &c.ShutdownTimeout, &other.ShutdownTimeout},
	}
}

func durationOf(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
