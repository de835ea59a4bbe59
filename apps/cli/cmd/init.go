package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/rpcpin/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	forceInit   bool
	initBaseURL string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize rpcpin configuration",
	Long: `Initialize rpcpin configuration in the current directory.

This creates:
  - .rpcpin.yaml   - Configuration file with base URL, headers and defaults
  - .env           - Variables referenced from .rpcpin.yaml as ${VAR}

Add a pinning section afterwards with "rpcpin pins <host> --yaml".

Examples:
  rpcpin init
  rpcpin init --base-url https://api.example.com --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVar(&initBaseURL, "base-url", "https://api.example.com", "Base URL written to the config")
	rootCmd.AddCommand(initCmd)
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".rpcpin.yaml")
	envFile := filepath.Join(cwd, ".env")

	if !forceInit {
		for _, f := range []string{configFile, envFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = initBaseURL
	cfg.Headers = map[string]string{
		"User-Agent":    "rpcpin/" + version,
		"Authorization": "Bearer ${API_TOKEN}",
	}
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	envContent := "# Values for ${VAR} references in .rpcpin.yaml\nAPI_TOKEN=change-me\n"
	if err := os.WriteFile(envFile, []byte(envContent), 0600); err != nil {
		return fmt.Errorf("failed to create env file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nrpcpin configured!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'rpcpin request GET /' to call %s.\n", initBaseURL)

	return nil
}
