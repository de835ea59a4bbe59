package pinning

import (
	"crypto/x509"
	"fmt"

	"github.com/abdul-hamid-achik/rpcpin/packages/trace"
	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
)

// Observer is notified of every trust decision.
type Observer interface {
	ObserveHandshake(granularity Granularity, strategy Strategy, decision Decision)
}

// Validator evaluates presented certificate chains against a pinned set.
// Its fields are fixed at construction, so one instance may serve any
// number of concurrent handshakes.
type Validator struct {
	granularity Granularity
	strategy    Strategy
	extract     Extractor
	pinned      Set

	logger   trace.Logger
	observer Observer
}

type Option func(*validatorConfig)

type validatorConfig struct {
	pins     []string
	logger   trace.Logger
	observer Observer
}

// WithPins adds SPKI pins ("sha256/<base64>") to a public-key validator.
func WithPins(pins ...string) Option {
	return func(c *validatorConfig) {
		c.pins = append(c.pins, pins...)
	}
}

func WithLogger(l trace.Logger) Option {
	return func(c *validatorConfig) {
		c.logger = l
	}
}

func WithObserver(o Observer) Option {
	return func(c *validatorConfig) {
		c.observer = o
	}
}

// NewCertificateValidator pins whole certificates.
func NewCertificateValidator(sources []Source, strategy Strategy, opts ...Option) (*Validator, error) {
	return New(Certificate, strategy, sources, opts...)
}

// NewPublicKeyValidator pins the public keys of the source certificates.
func NewPublicKeyValidator(sources []Source, strategy Strategy, opts ...Option) (*Validator, error) {
	return New(PublicKey, strategy, sources, opts...)
}

// New builds a validator and computes its pinned set. Sources that cannot be
// read are skipped and logged; the call fails only when nothing at all could
// be pinned.
func New(granularity Granularity, strategy Strategy, sources []Source, opts ...Option) (*Validator, error) {
	cfg := &validatorConfig{logger: trace.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	v := &Validator{
		granularity: granularity,
		strategy:    strategy,
		extract:     ExtractorFor(granularity),
		logger:      cfg.logger,
		observer:    cfg.observer,
	}

	var anchors []*x509.Certificate
	for _, src := range sources {
		certs, err := src.Certificates()
		if err != nil {
			trace.Safe(v.logger, trace.CategoryChallenge, fmt.Sprintf("skipping pinned source: %v", err))
			continue
		}
		anchors = append(anchors, certs...)
	}

	pinned, missing := Elements(anchors, v.extract)
	if missing > 0 {
		trace.Safe(v.logger, trace.CategoryChallenge, fmt.Sprintf("%d pinned certificate(s) have no usable %s", missing, granularity))
	}

	if len(cfg.pins) > 0 {
		if granularity != PublicKey {
			return nil, fmt.Errorf("SPKI pins require publickey granularity, got %s", granularity)
		}
		for _, p := range cfg.pins {
			e, err := ParsePin(p)
			if err != nil {
				return nil, err
			}
			pinned[e] = struct{}{}
		}
	}

	if len(pinned) == 0 {
		return nil, ErrNoPins
	}

	v.pinned = pinned
	return v, nil
}

func (v *Validator) Granularity() Granularity { return v.granularity }

func (v *Validator) Strategy() Strategy { return v.strategy }

// Pinned returns a copy of the pinned set.
func (v *Validator) Pinned() Set {
	return v.pinned.Clone()
}

// Evaluate decides whether chain is trusted. An empty chain is rejected.
// Under AllCertsFromChain a certificate without a usable element rejects the
// chain; under AnyCertFromChain it simply cannot match.
func (v *Validator) Evaluate(chain []*x509.Certificate) Decision {
	if len(chain) == 0 {
		return Reject
	}

	presented, missing := Elements(chain, v.extract)
	if missing > 0 && v.strategy == AllCertsFromChain {
		return Reject
	}
	return Evaluate(presented, v.pinned, v.strategy)
}

// HandleChallenge implements transport.TrustDelegate.
func (v *Validator) HandleChallenge(ch *transport.Challenge, complete func(transport.Disposition)) {
	trust := ch.ServerTrust()
	if trust == nil || len(trust.Chain) == 0 {
		trace.Safe(v.logger, trace.CategoryChallenge, "challenge failed: unable to create cert trust")
		v.observe(Reject)
		complete(transport.CancelChallenge)
		return
	}

	decision := v.Evaluate(trust.Chain)
	v.observe(decision)

	if decision != Accept {
		trace.Safe(v.logger, trace.CategoryChallenge, fmt.Sprintf(
			"challenge failed for %s: no pinned %s match (strategy %s, %d presented)",
			trust.ServerName, v.granularity, v.strategy, len(trust.Chain)))
		complete(transport.CancelChallenge)
		return
	}

	complete(transport.UseCredential)
}

func (v *Validator) observe(d Decision) {
	if v.observer != nil {
		v.observer.ObserveHandshake(v.granularity, v.strategy, d)
	}
}

var _ transport.TrustDelegate = (*Validator)(nil)
