package pinning

import (
	"fmt"
	"strings"
)

// Strategy decides how presented elements are matched against the pinned set.
type Strategy int

const (
	// AnyCertFromChain accepts when at least one presented element is pinned.
	AnyCertFromChain Strategy = iota
	// AllCertsFromChain accepts only when every presented element is pinned.
	AllCertsFromChain
)

func (s Strategy) String() string {
	switch s {
	case AnyCertFromChain:
		return "any"
	case AllCertsFromChain:
		return "all"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "any" or "all" (case-insensitive). An empty string
// yields AnyCertFromChain.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return AnyCertFromChain, nil
	case "all":
		return AllCertsFromChain, nil
	default:
		return 0, fmt.Errorf("unknown pinning strategy %q (expected any or all)", s)
	}
}

// Granularity selects what is compared: whole certificates or public keys.
type Granularity int

const (
	Certificate Granularity = iota
	PublicKey
)

func (g Granularity) String() string {
	switch g {
	case Certificate:
		return "certificate"
	case PublicKey:
		return "publickey"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// ParseGranularity accepts "certificate"/"cert" or "publickey"/"key"/"spki".
// An empty string yields Certificate.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "certificate", "cert":
		return Certificate, nil
	case "publickey", "public-key", "key", "spki":
		return PublicKey, nil
	default:
		return 0, fmt.Errorf("unknown pinning granularity %q (expected certificate or publickey)", s)
	}
}

// Decision is the outcome of a trust evaluation.
type Decision int

const (
	Reject Decision = iota
	Accept
)

func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}
	return "reject"
}
