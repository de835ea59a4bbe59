package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/core/config"
	"github.com/abdul-hamid-achik/rpcpin/packages/core/env"
	"github.com/abdul-hamid-achik/rpcpin/packages/metrics"
	"github.com/abdul-hamid-achik/rpcpin/packages/output"
	"github.com/abdul-hamid-achik/rpcpin/packages/pinning"
	"github.com/abdul-hamid-achik/rpcpin/packages/rpc"
	"github.com/abdul-hamid-achik/rpcpin/packages/trace"
	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request <method> <path|url>",
	Short: "Send a request through the dispatcher",
	Long: `Send a request and print the response.

Paths are resolved against baseURL from the config file or --base-url.
By default the callback dispatcher is used, which only accepts 200 with a
body; --stream uses the stream dispatcher, which accepts any 2xx.

Examples:
  rpcpin request GET /users/1 --base-url https://api.example.com
  rpcpin request POST /users -H "Content-Type: application/json" -d '{"name":"ada"}'
  rpcpin request GET https://api.example.com/health --pin sha256/AbC...= --stream
  rpcpin request GET /search -q term=tls --repeat 50 --metrics-file metrics.prom`,
	Args: cobra.ExactArgs(2),
	RunE: requestCommand,
}

var (
	baseURLFlag        string
	headerFlags        []string
	paramFlags         []string
	dataFlag           string
	dataFileFlag       string
	streamFlag         bool
	repeatFlag         int
	includeFlag        bool
	timeoutFlag        string
	proxyFlag          string
	insecureFlag       bool
	rateFlag           float64
	burstFlag          int
	pinCertFlags       []string
	pinFlags           []string
	pinStrategyFlag    string
	pinGranularityFlag string
	metricsFileFlag    string
)

func init() {
	// Request flags
	requestCmd.Flags().StringVar(&baseURLFlag, "base-url", getEnvString("RPCPIN_BASE_URL", ""), "Base URL for relative paths (env: RPCPIN_BASE_URL)")
	requestCmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, `Request header "Name: value" (repeatable)`)
	requestCmd.Flags().StringArrayVarP(&paramFlags, "param", "q", nil, "Query parameter key=value (repeatable)")
	requestCmd.Flags().StringVarP(&dataFlag, "data", "d", "", "Request body")
	requestCmd.Flags().StringVar(&dataFileFlag, "data-file", "", "Read the request body from a file (- for stdin)")

	// Execution flags
	requestCmd.Flags().BoolVar(&streamFlag, "stream", false, "Use the stream dispatcher (any 2xx succeeds)")
	requestCmd.Flags().IntVarP(&repeatFlag, "repeat", "n", getEnvInt("RPCPIN_REPEAT", 1), "Send the request N times and print latency percentiles (env: RPCPIN_REPEAT)")
	requestCmd.Flags().BoolVarP(&includeFlag, "include", "i", false, "Print response headers")
	requestCmd.Flags().StringVar(&metricsFileFlag, "metrics-file", getEnvString("RPCPIN_METRICS_FILE", ""), "Write Prometheus metrics to this file when done (env: RPCPIN_METRICS_FILE)")

	// Network flags
	requestCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("RPCPIN_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: RPCPIN_TIMEOUT)")
	requestCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("RPCPIN_PROXY", ""), "Proxy URL for HTTP requests (env: RPCPIN_PROXY)")
	requestCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("RPCPIN_INSECURE", false), "Disable system certificate validation when not pinning (env: RPCPIN_INSECURE)")
	requestCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Maximum requests per second (0 = unlimited)")
	requestCmd.Flags().IntVar(&burstFlag, "burst", 0, "Rate limiter burst size (default 1 when --rate is set)")

	// Pinning flags
	requestCmd.Flags().StringArrayVar(&pinCertFlags, "pin-cert", nil, "Pinned certificate file, PEM or DER (repeatable)")
	requestCmd.Flags().StringArrayVar(&pinFlags, "pin", nil, "Pinned public key as sha256/<base64> (repeatable)")
	requestCmd.Flags().StringVar(&pinStrategyFlag, "pin-strategy", "any", "Pinning strategy: any, all")
	requestCmd.Flags().StringVar(&pinGranularityFlag, "pin-granularity", "", "Pinning granularity: certificate, publickey (default publickey with --pin, certificate otherwise)")
}

func requestCommand(cmd *cobra.Command, args []string) error {
	method := rpc.Method(strings.ToUpper(args[0]))
	if !method.Valid() {
		return withExitCode(ExitUsageError, fmt.Errorf("unsupported method %q", args[0]))
	}
	if repeatFlag < 1 {
		return withExitCode(ExitUsageError, fmt.Errorf("--repeat must be at least 1"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	headers, err := parsePairs(headerFlags, ":")
	if err != nil {
		return withExitCode(ExitUsageError, fmt.Errorf("invalid header: %w", err))
	}
	params, err := parsePairs(paramFlags, "=")
	if err != nil {
		return withExitCode(ExitUsageError, fmt.Errorf("invalid param: %w", err))
	}
	body, err := readBody(cmd.InOrStdin())
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	formatter, err := newFormatter(cmd.OutOrStdout(), cfg)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(registry)
	latency := metrics.NewLatency()

	validator, err := cfg.NewValidator(pinning.WithLogger(logger), pinning.WithObserver(collector))
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("pinning: %w", err))
	}

	opts := cfg.TransportOptions()
	if validator != nil {
		opts = append(opts, transport.WithTrustDelegate(validator))
	}
	tr := transport.NewHTTPTransport(opts...)
	defer tr.CloseIdleConnections()

	urls, err := rpc.NewBaseURL(cfg.BaseURL)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("baseURL: %w", err))
	}
	client := rpc.NewClient(tr, urls,
		rpc.WithLogger(logger),
		rpc.WithObserver(metrics.Observers{collector, latency}),
	)
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := rpc.Request{
		Method:  method,
		Path:    args[1],
		Headers: mergeHeaders(cfg.Headers, headers),
		Params:  params,
		Body:    body,
	}
	display := args[1]
	if u, err := urls.Build(req.Path, req.Params); err == nil {
		display = u.String()
	}

	var failure *rpc.Error
	for i := 0; i < repeatFlag; i++ {
		start := time.Now()
		resp, err := dispatch(ctx, client, req)
		result := output.Result{Method: method, URL: display, Duration: time.Since(start)}

		if err != nil {
			e, ok := rpc.AsError(err)
			if !ok {
				return withExitCode(ExitNetworkError, err)
			}
			failure = e
			result.Err = e
			formatter.FormatResult(result)
			continue
		}

		if repeatFlag == 1 || cfg.GetVerbose() {
			result.Response = resp
			formatter.FormatResult(result)
		}
	}

	if repeatFlag > 1 {
		formatter.FormatSummary(latency.Summary())
	}
	if f, ok := formatter.(output.Flushable); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if metricsFileFlag != "" {
		if err := prometheus.WriteToTextfile(metricsFileFlag, registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if failure != nil {
		return reported(failureExitCode(failure), failure)
	}
	return nil
}

// dispatch runs one request in the selected style and waits for it.
func dispatch(ctx context.Context, client *rpc.Client, req rpc.Request) (*rpc.Response, error) {
	if streamFlag {
		endpoint := rpc.Endpoint{Method: req.Method, Path: req.Path}
		return client.Perform(endpoint, req.Headers, req.Params, req.Body).Await(ctx)
	}

	type outcome struct {
		resp *rpc.Response
		err  *rpc.Error
	}
	done := make(chan outcome, 1)
	client.Dispatch(req,
		func(r *rpc.Response) { done <- outcome{resp: r} },
		func(e *rpc.Error) { done <- outcome{err: e} },
	)

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		return o.resp, nil
	case <-ctx.Done():
		client.Close()
		return nil, ctx.Err()
	}
}

func failureExitCode(e *rpc.Error) int {
	if errors.Is(e, transport.ErrTrustRejected) {
		return ExitTrustError
	}
	switch e.Kind {
	case rpc.KindBuild:
		return ExitUsageError
	case rpc.KindTransport, rpc.KindNoResponse:
		return ExitNetworkError
	default:
		return ExitRequestFailure
	}
}

// loadConfig layers the config file, the optional .env file and flags.
func loadConfig() (*config.Config, error) {
	if envFileFlag != "" {
		if _, err := env.LoadAndExportDotEnv(envFileFlag); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	overrides, err := flagOverrides()
	if err != nil {
		return nil, err
	}
	cfg = cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func flagOverrides() (*config.Config, error) {
	o := &config.Config{
		BaseURL:   baseURLFlag,
		Proxy:     proxyFlag,
		RateLimit: rateFlag,
		RateBurst: burstFlag,
		Logging:   config.Logging{Format: logFormatFlag},
	}

	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", timeoutFlag, err)
		}
		o.Timeout = int(d.Milliseconds())
	}
	if insecureFlag {
		o.ValidateSSL = config.BoolPtr(false)
	}
	if verboseFlag {
		o.Logging.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		o.Logging.NoColor = config.BoolPtr(true)
	}

	if len(pinCertFlags) > 0 || len(pinFlags) > 0 {
		granularity := pinGranularityFlag
		if granularity == "" && len(pinFlags) > 0 {
			granularity = pinning.PublicKey.String()
		}
		o.Pinning = &config.Pinning{
			Granularity:  granularity,
			Strategy:     pinStrategyFlag,
			Certificates: pinCertFlags,
			Pins:         pinFlags,
		}
	}
	return o, nil
}

// newLogger traces everything in verbose mode and only trust challenges
// otherwise.
func newLogger(cfg *config.Config, w io.Writer) trace.Logger {
	logger := cfg.NewLogger(w)
	if cfg.GetVerbose() {
		return logger
	}
	return trace.LoggerFunc(func(category trace.Category, msg string) {
		if category == trace.CategoryChallenge {
			logger.Log(category, msg)
		}
	})
}

func newFormatter(w io.Writer, cfg *config.Config) (output.Formatter, error) {
	switch strings.ToLower(outputFlag) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithHeaders(includeFlag),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected console or json)", outputFlag)
	}
}

// parsePairs splits each "key<sep>value" entry.
func parsePairs(entries []string, sep string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	pairs := make(map[string]string, len(entries))
	for _, entry := range entries {
		k, v, ok := strings.Cut(entry, sep)
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%q is not in key%svalue form", entry, sep)
		}
		pairs[k] = strings.TrimSpace(v)
	}
	return pairs, nil
}

func mergeHeaders(defaults, explicit map[string]string) map[string]string {
	if len(defaults) == 0 {
		return explicit
	}
	merged := make(map[string]string, len(defaults)+len(explicit))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range explicit {
		merged[k] = v
	}
	return merged
}

func readBody(stdin io.Reader) ([]byte, error) {
	switch {
	case dataFlag != "" && dataFileFlag != "":
		return nil, fmt.Errorf("--data and --data-file are mutually exclusive")
	case dataFlag != "":
		return []byte(dataFlag), nil
	case dataFileFlag == "-":
		return io.ReadAll(stdin)
	case dataFileFlag != "":
		return os.ReadFile(dataFileFlag)
	}
	return nil, nil
}
