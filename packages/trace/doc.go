// Package trace is the logging collaborator for rpcpin.
//
// Messages are human-readable strings tagged with a Category. It provides:
//   - A Logger interface and a no-op implementation
//   - A coloured console logger
//   - A zap adapter for structured output
//   - cURL rendering of outgoing requests
//
// Logging is best effort: a failing writer never affects the caller.
package trace
