package pinning

import "errors"

var (
	// ErrNoPins is returned when a validator's sources yield no pinned element.
	ErrNoPins = errors.New("pinning: no pinned certificates or keys")

	// ErrNoCertificates is returned when a source contains no certificate.
	ErrNoCertificates = errors.New("pinning: no certificates found")

	// ErrInvalidPin is returned for a malformed SPKI pin.
	ErrInvalidPin = errors.New("pinning: invalid pin format")
)
