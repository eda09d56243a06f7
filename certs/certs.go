// Package certs loads X.509 certificates, CRLs and OCSP responses from PEM
// and DER encoded files and describes them as diagnostic data, so that
// certificate chains found on disk can be validated without a prepared
// diagnostic data file.
package certs

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

const pemCertificate = "CERTIFICATE"

var (
	ErrNoCertificate         = errors.New("certs: no certificate found")
	ErrMultipleCertificates  = errors.New("certs: expected exactly one certificate")
	ErrMalformedCertificates = errors.New("certs: malformed certificate data")
)

// Parse decodes the certificates of a PEM bundle or of one or more
// concatenated DER encodings. PEM blocks other than CERTIFICATE are
// skipped.
func Parse(data []byte) ([]*x509.Certificate, error) {
	if !isPEM(data) {
		if len(data) == 0 {
			return nil, ErrNoCertificate
		}
		certs, err := x509.ParseCertificates(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCertificates, err)
		}
		return certs, nil
	}

	var certs []*x509.Certificate
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != pemCertificate {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: certificate %d: %w", ErrMalformedCertificates, len(certs)+1, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, ErrNoCertificate
	}
	return certs, nil
}

// Load reads the certificates of every file in order.
func Load(filenames ...string) ([]*x509.Certificate, error) {
	var all []*x509.Certificate
	for _, name := range filenames {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		certs, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		all = append(all, certs...)
	}
	return all, nil
}

// LoadCertificate reads a file holding exactly one certificate.
func LoadCertificate(filename string) (*x509.Certificate, error) {
	certs, err := Load(filename)
	if err != nil {
		return nil, err
	}
	if len(certs) != 1 {
		return nil, fmt.Errorf("%s: %w, found %d", filename, ErrMultipleCertificates, len(certs))
	}
	return certs[0], nil
}

func isPEM(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN "))
}
