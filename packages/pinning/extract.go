package pinning

import (
	"crypto/sha256"
	"crypto/x509"
)

// Extractor derives the comparable element of a certificate. ok is false
// when the certificate has no usable element.
type Extractor func(cert *x509.Certificate) (e Element, ok bool)

// CertificateElement digests the whole DER certificate.
func CertificateElement(cert *x509.Certificate) (Element, bool) {
	if cert == nil || len(cert.Raw) == 0 {
		return Element{}, false
	}
	return sha256.Sum256(cert.Raw), true
}

// PublicKeyElement digests the certificate's SubjectPublicKeyInfo. Keys Go
// cannot parse or re-encode yield no element.
func PublicKeyElement(cert *x509.Certificate) (Element, bool) {
	if cert == nil || cert.PublicKey == nil || len(cert.RawSubjectPublicKeyInfo) == 0 {
		return Element{}, false
	}
	if _, err := x509.MarshalPKIXPublicKey(cert.PublicKey); err != nil {
		return Element{}, false
	}
	return sha256.Sum256(cert.RawSubjectPublicKeyInfo), true
}

// ExtractorFor returns the extractor for g.
func ExtractorFor(g Granularity) Extractor {
	if g == PublicKey {
		return PublicKeyElement
	}
	return CertificateElement
}

// Elements extracts the elements of chain. missing counts certificates that
// contributed nothing.
func Elements(chain []*x509.Certificate, extract Extractor) (set Set, missing int) {
	set = make(Set, len(chain))
	for _, cert := range chain {
		e, ok := extract(cert)
		if !ok {
			missing++
			continue
		}
		set[e] = struct{}{}
	}
	return set, missing
}
