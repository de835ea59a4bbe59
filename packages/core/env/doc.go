// Package env loads .env files and expands ${VAR} references.
//
// It provides functionality for:
//   - Parsing .env files (KEY=value, quoted values, export prefixes, comments)
//   - Loading .env and .env.local from a directory with local overrides
//   - Expanding ${VAR} and ${VAR:-default} against loaded variables and the OS environment
package env
