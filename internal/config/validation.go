package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for values that would fail later in a
// less obvious way. Defaults are applied before validation, so only
// user-supplied overrides can trip these.
func (c *Config) Validate() error {
	if _, err := url.Parse(c.API.BaseURL); err != nil {
		return fmt.Errorf("invalid api.base_url %q: %w", c.API.BaseURL, err)
	}

	if c.Retry.Mode != "" && NormalizeRetryBackoff(string(c.Retry.Mode)) == "" {
		return fmt.Errorf("invalid retry.mode %q (want fixed|linear|exponential)", c.Retry.Mode)
	}

	initDur, err := time.ParseDuration(c.Retry.InitialDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.initial %q: %w", c.Retry.InitialDelay, err)
	}
	maxDur, err := time.ParseDuration(c.Retry.MaxDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.max %q: %w", c.Retry.MaxDelay, err)
	}
	if initDur > maxDur {
		return fmt.Errorf("retry.initial (%s) exceeds retry.max (%s)", initDur, maxDur)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}

	if _, err := time.ParseDuration(c.Daemon.RefreshInterval); err != nil {
		return fmt.Errorf("invalid daemon.refresh_interval %q: %w", c.Daemon.RefreshInterval, err)
	}

	return nil
}

// RetryInitial returns the parsed initial retry delay. Validate must have
// accepted the config first.
func (c *Config) RetryInitial() time.Duration {
	d, _ := time.ParseDuration(c.Retry.InitialDelay)
	return d
}

// RetryMax returns the parsed retry delay cap.
func (c *Config) RetryMax() time.Duration {
	d, _ := time.ParseDuration(c.Retry.MaxDelay)
	return d
}

// RefreshInterval returns the parsed daemon refresh interval.
func (c *Config) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Daemon.RefreshInterval)
	return d
}
