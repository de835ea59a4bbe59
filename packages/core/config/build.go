package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/rpcpin/packages/pinning"
	"github.com/abdul-hamid-achik/rpcpin/packages/rpc"
	"github.com/abdul-hamid-achik/rpcpin/packages/trace"
	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL != "" {
		if err := rpc.ValidateURL(c.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("baseURL: %w", err))
		}
	}
	if c.Proxy != "" {
		if u, err := url.Parse(c.Proxy); err != nil {
			errs = append(errs, fmt.Errorf("proxy: %w", err))
		} else if u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("proxy: %q must be an absolute URL", c.Proxy))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout: must not be negative"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rateLimit: must not be negative"))
	}

	switch c.Logging.Format {
	case "", LogFormatConsole, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	if p := c.Pinning; p != nil {
		g, err := pinning.ParseGranularity(p.Granularity)
		if err != nil {
			errs = append(errs, fmt.Errorf("pinning.granularity: %w", err))
		}
		if _, err := pinning.ParseStrategy(p.Strategy); err != nil {
			errs = append(errs, fmt.Errorf("pinning.strategy: %w", err))
		}
		if len(p.Pins) > 0 && err == nil && g != pinning.PublicKey {
			errs = append(errs, errors.New("pinning.pins: require publickey granularity"))
		}
		for _, pin := range p.Pins {
			if _, err := pinning.ParsePin(pin); err != nil {
				errs = append(errs, fmt.Errorf("pinning.pins: %w", err))
			}
		}
		if len(p.Certificates) == 0 && len(p.Pins) == 0 {
			errs = append(errs, errors.New("pinning: no certificates or pins configured"))
		}
	}

	return errors.Join(errs...)
}

// TransportOptions translates the network settings into transport options.
func (c *Config) TransportOptions() []transport.Option {
	return []transport.Option{
		transport.WithTimeout(c.TimeoutDuration()),
		transport.WithFollowRedirects(c.GetFollowRedirects()),
		transport.WithMaxRedirects(c.MaxRedirects),
		transport.WithValidateSSL(c.GetValidateSSL()),
		transport.WithProxy(c.Proxy),
		transport.WithRateLimit(c.RateLimit, c.RateBurst),
	}
}

// NewValidator builds the trust validator described by the pinning section.
// It returns nil, nil when pinning is not configured.
func (c *Config) NewValidator(opts ...pinning.Option) (*pinning.Validator, error) {
	p := c.Pinning
	if p == nil {
		return nil, nil
	}

	g, err := pinning.ParseGranularity(p.Granularity)
	if err != nil {
		return nil, err
	}
	s, err := pinning.ParseStrategy(p.Strategy)
	if err != nil {
		return nil, err
	}

	sources := make([]pinning.Source, 0, len(p.Certificates))
	for _, path := range p.Certificates {
		sources = append(sources, pinning.File(path))
	}
	if len(p.Pins) > 0 {
		opts = append(opts, pinning.WithPins(p.Pins...))
	}

	return pinning.New(g, s, sources, opts...)
}

// NewLogger builds the trace logger for w. The json format writes one
// structured zap entry per message; console writes coloured lines.
func (c *Config) NewLogger(w io.Writer) trace.Logger {
	if strings.EqualFold(c.Logging.Format, LogFormatJSON) {
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.InfoLevel)
		return trace.NewZapLogger(zap.New(core))
	}

	return trace.NewConsoleLogger(
		trace.WithWriter(w),
		trace.WithVerbose(c.GetVerbose()),
		trace.WithNoColor(c.GetNoColor()),
	)
}
