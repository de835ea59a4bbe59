package cmd

// Exit codes for rpcpin CLI
const (
	// ExitSuccess indicates every request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates a response was rejected (status or missing body)
	ExitRequestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitTrustError indicates the server failed certificate pinning
	ExitTrustError = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
