package transport

import (
	"crypto/x509"
	"errors"
	"sync"
)

// ErrTrustRejected is wrapped by handshake errors caused by a delegate
// cancelling the trust challenge.
var ErrTrustRejected = errors.New("transport: server trust rejected")

// Disposition is a trust delegate's answer to a challenge.
type Disposition int

const (
	// UseCredential continues the handshake with the presented trust as-is.
	UseCredential Disposition = iota
	// CancelChallenge aborts the handshake.
	CancelChallenge
)

func (d Disposition) String() string {
	switch d {
	case UseCredential:
		return "use-credential"
	case CancelChallenge:
		return "cancel"
	default:
		return "unknown"
	}
}

// ServerTrust is the identity a server presented during a TLS handshake.
type ServerTrust struct {
	ServerName string
	Chain      []*x509.Certificate
}

// Challenge wraps the server trust handed to a TrustDelegate.
type Challenge struct {
	trust *ServerTrust
}

func NewChallenge(trust *ServerTrust) *Challenge {
	return &Challenge{trust: trust}
}

// ServerTrust returns the presented trust, or nil when the handshake
// produced none.
func (c *Challenge) ServerTrust() *ServerTrust {
	if c == nil {
		return nil
	}
	return c.trust
}

// TrustDelegate evaluates server trust during connection setup. It must call
// complete before returning; later calls are ignored.
type TrustDelegate interface {
	HandleChallenge(ch *Challenge, complete func(Disposition))
}

// TrustDelegateFunc adapts a function to TrustDelegate.
type TrustDelegateFunc func(ch *Challenge, complete func(Disposition))

func (f TrustDelegateFunc) HandleChallenge(ch *Challenge, complete func(Disposition)) {
	f(ch, complete)
}

// EvaluateChallenge runs d synchronously and returns its disposition. A
// delegate that returns without completing cancels the challenge.
func EvaluateChallenge(d TrustDelegate, trust *ServerTrust) Disposition {
	var (
		mu       sync.Mutex
		decided  bool
		decision = CancelChallenge
	)

	d.HandleChallenge(NewChallenge(trust), func(got Disposition) {
		mu.Lock()
		defer mu.Unlock()
		if !decided {
			decision = got
			decided = true
		}
	})

	mu.Lock()
	defer mu.Unlock()
	decided = true
	return decision
}
