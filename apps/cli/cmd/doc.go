// Package cmd implements the rpcpin CLI commands using Cobra.
//
// Available commands:
//   - request: Send one request (or a repeated batch) through the dispatcher
//   - pins: Print the certificate chain a server presents and its pins
//   - init: Write a starter .rpcpin.yaml and .env
//   - completion: Generate shell completion scripts
//   - version: Show rpcpin version information
//
// Configuration comes from .rpcpin.yaml / .rpcpin.json, an optional .env
// file, RPCPIN_* environment variables and flags, in increasing precedence.
package cmd
