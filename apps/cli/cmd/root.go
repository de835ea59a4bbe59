package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	envFileFlag   string
	verboseFlag   bool
	noColorFlag   bool
	logFormatFlag string
	outputFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "rpcpin",
	Short: "HTTP requests with certificate pinning. No surprises.",
	Long: `rpcpin sends HTTP requests through a dispatcher that can pin the
server's certificates or public keys instead of trusting the system roots.

Use "rpcpin pins" to read the chain a server presents and turn it into pin
configuration, then "rpcpin request" to call the API under that policy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || !ee.reported {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("RPCPIN_CONFIG", ""), "Path to config file (env: RPCPIN_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("RPCPIN_ENV_FILE", ""), "Path to .env file for ${VAR} interpolation (env: RPCPIN_ENV_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("RPCPIN_VERBOSE", false), "Trace every request and print full error details (env: RPCPIN_VERBOSE)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("RPCPIN_NO_COLOR", false), "Disable colored output (env: RPCPIN_NO_COLOR)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", getEnvString("RPCPIN_LOG_FORMAT", ""), "Trace format: console, json (env: RPCPIN_LOG_FORMAT)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", getEnvString("RPCPIN_OUTPUT", "console"), "Output format: console, json (env: RPCPIN_OUTPUT)")

	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(pinsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code     int
	err      error
	reported bool // already shown to the user
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// reported is withExitCode for failures the formatter already printed.
func reported(code int, err error) error {
	return &exitError{code: code, err: err, reported: true}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsageError
}
