// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Registry RegistryConfig `mapstructure:"registry"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds, 0 = none
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type WebhookConfig struct {
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds, 0 = none
}

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type SessionConfig struct {
	Backend         string `mapstructure:"backend"`
	TTL             int    `mapstructure:"ttl"` // milliseconds
	CookieName      string `mapstructure:"cookie_name"`
	CookieSecure    bool   `mapstructure:"cookie_secure"`
	CleanupInterval int    `mapstructure:"cleanup_interval"` // milliseconds
	// SubmitLease bounds how long a submitting flag blocks the session;
	// milliseconds, 0 = until cleared.
	SubmitLease int `mapstructure:"submit_lease"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// RegistryConfig points at an optional field registry override.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

func (s ServerConfig) ReadTimeoutDuration() time.Duration     { return GetDuration(s.ReadTimeout) }
func (s ServerConfig) WriteTimeoutDuration() time.Duration    { return GetDuration(s.WriteTimeout) }
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration { return GetDuration(s.ShutdownTimeout) }

func (w WebhookConfig) TimeoutDuration() time.Duration { return GetDuration(w.Timeout) }

func (s SessionConfig) TTLDuration() time.Duration             { return GetDuration(s.TTL) }
func (s SessionConfig) CleanupIntervalDuration() time.Duration { return GetDuration(s.CleanupInterval) }
func (s SessionConfig) SubmitLeaseDuration() time.Duration     { return GetDuration(s.SubmitLease) }

// UsesRedis reports whether the session store needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Session.Backend == SessionBackendRedis
}
