package pinning

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Source supplies trust anchor certificates.
type Source interface {
	Certificates() ([]*x509.Certificate, error)
}

// File is a certificate file on disk, PEM (one or more blocks) or DER.
type File string

func (f File) Certificates() ([]*x509.Certificate, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("read certificate %s: %w", string(f), err)
	}
	certs, err := ParseCertificates(data)
	if err != nil {
		return nil, fmt.Errorf("parse certificate %s: %w", string(f), err)
	}
	return certs, nil
}

// PEM is in-memory certificate data, PEM or DER.
type PEM []byte

func (p PEM) Certificates() ([]*x509.Certificate, error) {
	return ParseCertificates(p)
}

// Certificates is a source of already parsed certificates.
type Certificates []*x509.Certificate

func (c Certificates) Certificates() ([]*x509.Certificate, error) {
	if len(c) == 0 {
		return nil, ErrNoCertificates
	}
	return c, nil
}

// ParseCertificates decodes every CERTIFICATE block of PEM data, falling back
// to DER when data holds no PEM block.
func ParseCertificates(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := data
	sawPEM := false

	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		sawPEM = true
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	if !sawPEM {
		der, err := x509.ParseCertificates(data)
		if err != nil {
			return nil, err
		}
		certs = der
	}
	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}
	return certs, nil
}
