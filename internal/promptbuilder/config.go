package promptbuilder

import (
	"fmt"
	"time"
)

type Config struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	CookieName      string
	CookieSecure    bool
}

func DefaultConfig() *Config {
	return &Config{
		SessionTTL:      24 * time.Hour,
		CleanupInterval: time.Minute,
		CookieName:      "pb_session",
	}
}

func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.CookieName == "" {
		return fmt.Errorf("cookie name is required")
	}
	return nil
}
