package output

import (
	"crypto/x509"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/metrics"
	"github.com/abdul-hamid-achik/rpcpin/packages/pinning"
	"github.com/abdul-hamid-achik/rpcpin/packages/rpc"
)

// Result is one finished dispatch. Exactly one of Response and Err is set.
type Result struct {
	Method   rpc.Method
	URL      string
	Response *rpc.Response
	Err      *rpc.Error
	Duration time.Duration
}

// ChainCert describes one certificate of a presented chain together with
// the pins it would produce.
type ChainCert struct {
	Index      int       `json:"index" yaml:"index"`
	Subject    string    `json:"subject" yaml:"subject"`
	Issuer     string    `json:"issuer" yaml:"issuer"`
	NotAfter   time.Time `json:"notAfter" yaml:"notAfter"`
	CertSHA256 string    `json:"certSHA256" yaml:"certSHA256"`
	SPKIPin    string    `json:"spkiPin,omitempty" yaml:"spkiPin,omitempty"`
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(r Result)
	FormatSummary(s metrics.LatencySummary)
	FormatChain(host string, chain []ChainCert)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush() error
}

// DescribeChain computes the pin material for every certificate of chain.
// SPKIPin is empty when the public key cannot be extracted.
func DescribeChain(chain []*x509.Certificate) []ChainCert {
	out := make([]ChainCert, 0, len(chain))
	for i, cert := range chain {
		c := ChainCert{
			Index:    i,
			Subject:  cert.Subject.String(),
			Issuer:   cert.Issuer.String(),
			NotAfter: cert.NotAfter.UTC(),
		}
		if e, ok := pinning.CertificateElement(cert); ok {
			c.CertSHA256 = e.String()
		}
		if e, ok := pinning.PublicKeyElement(cert); ok {
			c.SPKIPin = e.Pin()
		}
		out = append(out, c)
	}
	return out
}
