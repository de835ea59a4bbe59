package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultTLSHandshakeTimeout bounds a single handshake, including trust evaluation
	DefaultTLSHandshakeTimeout = 10 * time.Second
)

// HTTPTransport is a Transport backed by net/http. Each Submit runs on its
// own goroutine; the completion is invoked from that goroutine.
type HTTPTransport struct {
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	limiter        *rate.Limiter

	mu       sync.RWMutex
	delegate TrustDelegate
	client   *http.Client
}

type Option func(*HTTPTransport)

func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.client = t.buildClient(t.delegate)
	return t
}

func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		t.timeout = d
	}
}

func WithFollowRedirects(follow bool) Option {
	return func(t *HTTPTransport) {
		t.followRedirect = follow
	}
}

func WithMaxRedirects(max int) Option {
	return func(t *HTTPTransport) {
		t.maxRedirects = max
	}
}

// WithValidateSSL enables or disables system certificate validation. It has
// no effect once a trust delegate is registered.
func WithValidateSSL(validate bool) Option {
	return func(t *HTTPTransport) {
		t.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) Option {
	return func(t *HTTPTransport) {
		t.proxyURL = proxyURL
	}
}

// WithRateLimit limits how fast requests are handed to the network. Waiting
// for a token honours the submission context.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *HTTPTransport) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTrustDelegate registers d at construction time.
func WithTrustDelegate(d TrustDelegate) Option {
	return func(t *HTTPTransport) {
		t.delegate = d
	}
}

// RegisterTrustDelegate installs d for all subsequent connections. Idle
// connections established under the previous policy are closed.
func (t *HTTPTransport) RegisterTrustDelegate(d TrustDelegate) {
	client := t.buildClient(d)

	t.mu.Lock()
	old := t.client
	t.delegate = d
	t.client = client
	t.mu.Unlock()

	if old != nil {
		old.CloseIdleConnections()
	}
}

// Submit sends req on a new goroutine and reports the outcome to done.
func (t *HTTPTransport) Submit(ctx context.Context, req *http.Request, done CompletionFunc) {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()

	go func() {
		done(t.roundTrip(ctx, client, req))
	}()
}

// CloseIdleConnections closes connections kept alive by the underlying client.
func (t *HTTPTransport) CloseIdleConnections() {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	client.CloseIdleConnections()
}

func (t *HTTPTransport) roundTrip(ctx context.Context, client *http.Client, req *http.Request) Outcome {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return Outcome{Err: err}
		}
	}

	httpResp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return Outcome{Err: err}
	}
	defer httpResp.Body.Close()

	raw := &RawResponse{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Outcome{Response: raw, Err: err}
	}

	return Outcome{Body: body, Response: raw}
}

func (t *HTTPTransport) buildClient(d TrustDelegate) *http.Client {
	transport := &http.Transport{
		TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		TLSClientConfig:     t.tlsConfig(d),
	}

	// Configure proxy if specified
	if t.proxyURL != "" {
		proxyURL, err := neturl.Parse(t.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !t.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= t.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	return &http.Client{
		Transport:     transport,
		Timeout:       t.timeout,
		CheckRedirect: redirectPolicy,
	}
}

// tlsConfig builds the client TLS configuration. With a delegate installed
// the delegate's disposition is the only trust decision: system chain
// verification is skipped and never used as a fallback.
func (t *HTTPTransport) tlsConfig(d TrustDelegate) *tls.Config {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if d == nil {
		cfg.InsecureSkipVerify = !t.validateSSL
		return cfg
	}

	cfg.InsecureSkipVerify = true
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		trust := &ServerTrust{ServerName: cs.ServerName, Chain: cs.PeerCertificates}
		if EvaluateChallenge(d, trust) != UseCredential {
			return fmt.Errorf("%w for %q", ErrTrustRejected, cs.ServerName)
		}
		return nil
	}
	return cfg
}

// ProbeChain performs a TLS handshake with addr without verifying it and
// returns the presented certificate chain.
func ProbeChain(ctx context.Context, addr, serverName string) (*ServerTrust, error) {
	if serverName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", addr, err)
		}
		serverName = host
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: DefaultTLSHandshakeTimeout},
		Config: &tls.Config{
			ServerName:         serverName,
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS12,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	return &ServerTrust{ServerName: serverName, Chain: state.PeerCertificates}, nil
}
