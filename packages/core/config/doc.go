// Package config handles configuration loading and management for rpcpin.
//
// It provides functionality for:
//   - Loading configuration from .rpcpin.json or .rpcpin.yaml files
//   - ${VAR} expansion against .env files and the OS environment
//   - Default configuration values and layered overrides
//   - Building the transport, trust validator and logger a config describes
package config
