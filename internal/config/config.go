package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the root mcpgate configuration.
type Config struct {
	Gateway GatewayConfig `json:"gateway" yaml:"gateway"`
	Admin   AdminConfig   `json:"admin" yaml:"admin"`
}

// GatewayConfig describes one MCP gateway connection.
type GatewayConfig struct {
	URL          string   `json:"url" yaml:"url"`
	AuthToken    string   `json:"authToken" yaml:"authToken"`
	AllowedTools []string `json:"allowedTools" yaml:"allowedTools"`

	// Timeouts in seconds; connection covers handshake and catalog listing,
	// execution covers tool calls.
	TimeoutConnection int `json:"timeoutConnection" yaml:"timeoutConnection"`
	TimeoutExecution  int `json:"timeoutExecution" yaml:"timeoutExecution"`

	// RefreshSchedule is a cron spec (descriptors like "@every 5m" included)
	// driving periodic catalog refresh.
	RefreshSchedule string `json:"refreshSchedule" yaml:"refreshSchedule"`

	// Backoff bounds, in seconds, for retries while degraded.
	BackoffInitial int `json:"backoffInitial" yaml:"backoffInitial"`
	BackoffCeiling int `json:"backoffCeiling" yaml:"backoffCeiling"`
}

// AdminConfig configures the local admin/metrics endpoint of `mcpgate serve`.
type AdminConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// DefaultConfig returns the built-in defaults: 10s connection timeout, 60s
// execution timeout, five-minute refresh, 5s..5m backoff.
func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			TimeoutConnection: 10,
			TimeoutExecution:  60,
			RefreshSchedule:   "@every 5m",
			BackoffInitial:    5,
			BackoffCeiling:    300,
		},
		Admin: AdminConfig{
			Enabled: true,
			Addr:    "127.0.0.1:18791",
		},
	}
}

// Validate checks the settings needed to open a connection.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return errors.New("gateway.url is not configured")
	}
	if _, err := c.Gateway.Schedule(); err != nil {
		return err
	}
	return nil
}

// Schedule parses the refresh schedule into a cron schedule.
func (g *GatewayConfig) Schedule() (cron.Schedule, error) {
	spec := g.RefreshSchedule
	if spec == "" {
		spec = "@every 5m"
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse refreshSchedule %q: %w", spec, err)
	}
	return sched, nil
}

func (g *GatewayConfig) ConnectionTimeout() time.Duration {
	return time.Duration(g.TimeoutConnection) * time.Second
}

func (g *GatewayConfig) ExecutionTimeout() time.Duration {
	return time.Duration(g.TimeoutExecution) * time.Second
}

func (g *GatewayConfig) BackoffFloor() time.Duration {
	return time.Duration(g.BackoffInitial) * time.Second
}

func (g *GatewayConfig) BackoffCap() time.Duration {
	return time.Duration(g.BackoffCeiling) * time.Second
}

// Redacted returns a copy safe for diagnostics output: the auth token is
// masked, everything else is preserved.
func (c Config) Redacted() Config {
	if c.Gateway.AuthToken != "" {
		c.Gateway.AuthToken = "**REDACTED**"
	}
	return c
}
