package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/rpcpin/packages/core/env"
	"gopkg.in/yaml.v3"
)

// Config represents the rpcpin configuration
type Config struct {
	BaseURL         string            `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Timeout         int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for all requests
	RateLimit       float64           `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // requests per second, 0 disables
	RateBurst       int               `json:"rateBurst,omitempty" yaml:"rateBurst,omitempty"`
	Pinning         *Pinning          `json:"pinning,omitempty" yaml:"pinning,omitempty"`
	Logging         Logging           `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Pinning configures the trust validator. Certificate paths are relative to
// the config file they were loaded from.
type Pinning struct {
	Granularity  string   `json:"granularity,omitempty" yaml:"granularity,omitempty"` // certificate | publickey
	Strategy     string   `json:"strategy,omitempty" yaml:"strategy,omitempty"`       // any | all
	Certificates []string `json:"certificates,omitempty" yaml:"certificates,omitempty"`
	Pins         []string `json:"pins,omitempty" yaml:"pins,omitempty"` // sha256/<base64> SPKI pins
}

type Logging struct {
	Format  string `json:"format,omitempty" yaml:"format,omitempty"` // console | json
	Verbose *bool  `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor *bool  `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// BoolPtr is exported version of boolPtr for external use
func BoolPtr(b bool) *bool {
	return boolPtr(b)
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Logging.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.Logging.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".rpcpin.yaml",
	".rpcpin.yml",
	".rpcpin.json",
	"rpcpin.config.yaml",
	"rpcpin.config.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. ${VAR}
// references are expanded first, using .env files next to the config and
// then the OS environment.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	vars, err := env.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	resolver := env.NewResolver(vars)
	if missing := resolver.Unresolved(string(data)); len(missing) > 0 {
		return nil, fmt.Errorf("%s: unresolved variables: %s", path, strings.Join(missing, ", "))
	}
	data = []byte(resolver.Resolve(string(data)))

	config := DefaultConfig()
	if err := Unmarshal(path, data, config); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	config.resolvePaths(dir)

	return config, nil
}

// Unmarshal decodes data as YAML or JSON depending on the file extension.
func Unmarshal(path string, data []byte, config *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, config)
	}
	return json.Unmarshal(data, config)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Config) resolvePaths(dir string) {
	if c.Pinning == nil {
		return
	}
	for i, p := range c.Pinning.Certificates {
		if !filepath.IsAbs(p) {
			c.Pinning.Certificates[i] = filepath.Join(dir, p)
		}
	}
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.RateBurst > 0 {
		result.RateBurst = other.RateBurst
	}
	if other.Logging.Format != "" {
		result.Logging.Format = other.Logging.Format
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Logging.Verbose != nil {
		result.Logging.Verbose = other.Logging.Verbose
	}
	if other.Logging.NoColor != nil {
		result.Logging.NoColor = other.Logging.NoColor
	}

	// Merge headers into a fresh map so c is left untouched
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	// A pinning section replaces the whole policy
	if other.Pinning != nil {
		p := *other.Pinning
		result.Pinning = &p
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML or JSON by extension
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
