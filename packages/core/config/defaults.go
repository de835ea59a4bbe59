package config

import (
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         int(transport.DefaultTimeout / time.Millisecond),
		FollowRedirects: boolPtr(true),
		MaxRedirects:    transport.DefaultMaxRedirects,
		ValidateSSL:     boolPtr(true),
		Logging: Logging{
			Format:  LogFormatConsole,
			Verbose: boolPtr(false),
			NoColor: boolPtr(false),
		},
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.BaseURL == defaults.BaseURL &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.RateLimit == 0 &&
		c.Pinning == nil &&
		c.Logging.Format == defaults.Logging.Format &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}

// TimeoutDuration returns Timeout as a duration, falling back to the
// transport default when unset.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return transport.DefaultTimeout
	}
	return time.Duration(c.Timeout) * time.Millisecond
}
