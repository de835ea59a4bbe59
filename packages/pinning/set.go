package pinning

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Element is a comparable pinning element: the SHA-256 digest of a DER
// certificate or of a DER SubjectPublicKeyInfo.
type Element [sha256.Size]byte

func (e Element) String() string {
	return hex.EncodeToString(e[:])
}

// Pin renders e in the "sha256/<base64>" form used for SPKI pins.
func (e Element) Pin() string {
	return "sha256/" + base64.StdEncoding.EncodeToString(e[:])
}

// ParsePin decodes a "sha256/<base64>" pin or a 64 character hex digest.
func ParsePin(s string) (Element, error) {
	var e Element
	s = strings.TrimSpace(s)

	var raw []byte
	var err error
	if rest, ok := strings.CutPrefix(s, "sha256/"); ok {
		raw, err = base64.StdEncoding.DecodeString(rest)
	} else {
		raw, err = hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	}
	if err != nil {
		return e, fmt.Errorf("%w: %q: %v", ErrInvalidPin, s, err)
	}
	if len(raw) != sha256.Size {
		return e, fmt.Errorf("%w: %q: want %d bytes, got %d", ErrInvalidPin, s, sha256.Size, len(raw))
	}

	copy(e[:], raw)
	return e, nil
}

// Set is an unordered collection of elements.
type Set map[Element]struct{}

func NewSet(elems ...Element) Set {
	s := make(Set, len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

func (s Set) Contains(e Element) bool {
	_, ok := s[e]
	return ok
}

// Intersects reports whether s and other share at least one element.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for e := range small {
		if large.Contains(e) {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every element of s is in other.
func (s Set) SubsetOf(other Set) bool {
	for e := range s {
		if !other.Contains(e) {
			return false
		}
	}
	return true
}

func (s Set) Clone() Set {
	c := make(Set, len(s))
	for e := range s {
		c[e] = struct{}{}
	}
	return c
}

// Evaluate applies strategy to a presented set and a pinned set. An empty
// presented set is always rejected.
func Evaluate(presented, pinned Set, strategy Strategy) Decision {
	if len(presented) == 0 {
		return Reject
	}

	switch strategy {
	case AnyCertFromChain:
		if presented.Intersects(pinned) {
			return Accept
		}
	case AllCertsFromChain:
		if presented.SubsetOf(pinned) {
			return Accept
		}
	}
	return Reject
}
