package cmd

import (
	"context"
	"encoding/pem"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/core/config"
	"github.com/abdul-hamid-achik/rpcpin/packages/output"
	"github.com/abdul-hamid-achik/rpcpin/packages/pinning"
	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var pinsCmd = &cobra.Command{
	Use:   "pins <host[:port]|url>",
	Short: "Print the certificate chain a server presents and its pins",
	Long: `Connect to a TLS server without verifying it and print every certificate
of the presented chain with its SHA-256 fingerprint and SPKI pin.

Examples:
  rpcpin pins api.example.com
  rpcpin pins https://api.example.com:8443 --yaml >> .rpcpin.yaml
  rpcpin pins api.example.com --yaml --granularity certificate --save-dir certs
  rpcpin pins api.example.com --check --config .rpcpin.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: pinsCommand,
}

var (
	serverNameFlag   string
	probeTimeoutFlag time.Duration
	yamlFlag         bool
	granularityFlag  string
	strategyFlag     string
	saveDirFlag      string
	checkFlag        bool
)

func init() {
	pinsCmd.Flags().StringVar(&serverNameFlag, "server-name", "", "SNI server name (default: the host)")
	pinsCmd.Flags().DurationVar(&probeTimeoutFlag, "timeout", transport.DefaultTLSHandshakeTimeout, "Connection timeout")
	pinsCmd.Flags().BoolVar(&yamlFlag, "yaml", false, "Print a pinning config section instead of the chain")
	pinsCmd.Flags().StringVar(&granularityFlag, "granularity", "publickey", "Granularity for --yaml: publickey, certificate")
	pinsCmd.Flags().StringVar(&strategyFlag, "strategy", "any", "Strategy for --yaml: any, all")
	pinsCmd.Flags().StringVar(&saveDirFlag, "save-dir", "", "Write each certificate as PEM into this directory")
	pinsCmd.Flags().BoolVar(&checkFlag, "check", false, "Evaluate the chain against the configured pinning policy")
}

func pinsCommand(cmd *cobra.Command, args []string) error {
	addr, err := probeAddress(args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeoutFlag)
	defer cancel()

	trust, err := transport.ProbeChain(ctx, addr, serverNameFlag)
	if err != nil {
		return withExitCode(ExitNetworkError, err)
	}
	if len(trust.Chain) == 0 {
		return withExitCode(ExitNetworkError, fmt.Errorf("%s presented no certificates", addr))
	}

	var files []string
	if saveDirFlag != "" {
		files, err = saveChain(saveDirFlag, trust.ServerName, trust)
		if err != nil {
			return err
		}
	}

	if checkFlag {
		return checkChain(cmd, addr, trust)
	}

	chain := output.DescribeChain(trust.Chain)
	if yamlFlag {
		return printPinningYAML(cmd, chain, files)
	}

	cfg := config.DefaultConfig()
	if noColorFlag {
		cfg.Logging.NoColor = config.BoolPtr(true)
	}
	formatter, err := newFormatter(cmd.OutOrStdout(), cfg)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	formatter.FormatChain(addr, chain)
	if f, ok := formatter.(output.Flushable); ok {
		return f.Flush()
	}
	return nil
}

// probeAddress accepts host, host:port or an https URL; the port defaults to 443.
func probeAddress(target string) (string, error) {
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", fmt.Errorf("invalid URL %q: %w", target, err)
		}
		if u.Hostname() == "" {
			return "", fmt.Errorf("URL %q has no host", target)
		}
		port := u.Port()
		if port == "" {
			port = "443"
		}
		return net.JoinHostPort(u.Hostname(), port), nil
	}

	if _, _, err := net.SplitHostPort(target); err == nil {
		return target, nil
	}
	if target == "" {
		return "", fmt.Errorf("empty host")
	}
	return net.JoinHostPort(target, "443"), nil
}

func checkChain(cmd *cobra.Command, addr string, trust *transport.ServerTrust) error {
	cfg, err := loadConfig()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	v, err := cfg.NewValidator(pinning.WithLogger(logger))
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("pinning: %w", err))
	}
	if v == nil {
		return withExitCode(ExitConfigError, fmt.Errorf("no pinning policy configured"))
	}

	decision := v.Evaluate(trust.Chain)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s, %s, %d pinned)\n",
		addr, decision, v.Granularity(), v.Strategy(), len(v.Pinned()))
	if decision != pinning.Accept {
		return reported(ExitTrustError, fmt.Errorf("%s: %w", addr, transport.ErrTrustRejected))
	}
	return nil
}

type pinningDocument struct {
	Pinning config.Pinning `yaml:"pinning"`
}

func printPinningYAML(cmd *cobra.Command, chain []output.ChainCert, files []string) error {
	g, err := pinning.ParseGranularity(granularityFlag)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	s, err := pinning.ParseStrategy(strategyFlag)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	doc := pinningDocument{Pinning: config.Pinning{Granularity: g.String(), Strategy: s.String()}}
	switch g {
	case pinning.PublicKey:
		for _, c := range chain {
			if c.SPKIPin != "" {
				doc.Pinning.Pins = append(doc.Pinning.Pins, c.SPKIPin)
			}
		}
	case pinning.Certificate:
		if len(files) == 0 {
			return withExitCode(ExitUsageError, fmt.Errorf("certificate granularity needs --save-dir to write the pinned files"))
		}
		doc.Pinning.Certificates = files
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func saveChain(dir, serverName string, trust *transport.ServerTrust) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	base := strings.NewReplacer(":", "_", "/", "_", "*", "wildcard").Replace(serverName)

	files := make([]string, 0, len(trust.Chain))
	for i, cert := range trust.Chain {
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.pem", base, i))
		data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}
