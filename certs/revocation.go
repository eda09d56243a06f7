package certs

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ocsp"

	"github.com/georgepadayatti/goades/diagnostic"
)

const pemCRL = "X509 CRL"

var (
	ErrNoRevocation          = errors.New("certs: no revocation data found")
	ErrMalformedRevocation   = errors.New("certs: malformed revocation data")
	ErrUnsupportedRevocation = errors.New("certs: unsupported revocation data")
)

// Revocation is a CRL or a single OCSP response read from disk. Exactly
// one of CRL and OCSP is set.
type Revocation struct {
	CRL  *x509.RevocationList
	OCSP *ocsp.Response
	Raw  []byte
}

// ParseRevocation decodes a PEM or DER CRL, or a DER OCSP response. The
// signature of an OCSP response carrying its responder certificate is
// checked against that certificate.
func ParseRevocation(data []byte) (*Revocation, error) {
	if isPEM(data) {
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, ErrNoRevocation
		}
		if block.Type != pemCRL {
			return nil, fmt.Errorf("%w: PEM block %q", ErrUnsupportedRevocation, block.Type)
		}
		data = block.Bytes
	}
	if len(data) == 0 {
		return nil, ErrNoRevocation
	}
	if crl, err := x509.ParseRevocationList(data); err == nil {
		return &Revocation{CRL: crl, Raw: data}, nil
	}
	resp, err := ocsp.ParseResponse(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRevocation, err)
	}
	return &Revocation{OCSP: resp, Raw: data}, nil
}

// LoadRevocations reads the revocation data of every file in order.
func LoadRevocations(filenames ...string) ([]*Revocation, error) {
	out := make([]*Revocation, 0, len(filenames))
	for _, name := range filenames {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		r, err := ParseRevocation(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// RevocationID returns the identifier of r in diagnostic data: "R-"
// followed by the upper case hex SHA-256 digest of its encoding.
func RevocationID(r *Revocation) string {
	sum := sha256.Sum256(r.Raw)
	return "R-" + strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Reason maps an RFC 5280 CRLReason code, as carried by CRL entries and
// OCSP responses, to a diagnostic reason. The unassigned value 7 and
// unknown codes are unspecified.
func Reason(code int) diagnostic.RevocationReason {
	switch code {
	case ocsp.KeyCompromise, ocsp.CACompromise, ocsp.AffiliationChanged,
		ocsp.Superseded, ocsp.CessationOfOperation, ocsp.CertificateHold,
		ocsp.RemoveFromCRL, ocsp.PrivilegeWithdrawn, ocsp.AACompromise:
		return diagnostic.RevocationReason(code)
	}
	return diagnostic.ReasonUnspecified
}

// status is the revocation status r gives for one certificate.
type status struct {
	cert  *x509.Certificate
	entry diagnostic.CertificateRevocation
}

// describeRevocation converts r into diagnostic revocation data signed by
// signer, which may be nil when no known certificate verifies it, and
// returns the status of every certificate of subjects that r covers. An
// OCSP response with an unknown status gives none.
func describeRevocation(r *Revocation, signer *x509.Certificate, subjects []*x509.Certificate) (*diagnostic.Revocation, []status) {
	id := RevocationID(r)
	out := &diagnostic.Revocation{ID: id}
	var statuses []status

	switch {
	case r.CRL != nil:
		crl := r.CRL
		out.Type = diagnostic.RevocationCRL
		out.ProductionDate = crl.ThisUpdate.UTC()
		out.ThisUpdate = crl.ThisUpdate.UTC()
		if !crl.NextUpdate.IsZero() {
			next := crl.NextUpdate.UTC()
			out.NextUpdate = &next
		}
		out.Signature = basicSignature(crl.SignatureAlgorithm)
		out.Signature.Intact = signer != nil && crl.CheckSignatureFrom(signer) == nil

		for _, c := range subjects {
			if !bytes.Equal(c.RawIssuer, crl.RawIssuer) || bytes.Equal(c.RawIssuer, c.RawSubject) {
				continue
			}
			st := status{cert: c, entry: diagnostic.CertificateRevocation{Revocation: id}}
			for _, e := range crl.RevokedCertificateEntries {
				if e.SerialNumber == nil || e.SerialNumber.Cmp(c.SerialNumber) != 0 {
					continue
				}
				at := e.RevocationTime.UTC()
				st.entry.Revoked = true
				st.entry.Reason = Reason(e.ReasonCode)
				st.entry.RevocationDate = &at
				break
			}
			statuses = append(statuses, st)
		}

	case r.OCSP != nil:
		resp := r.OCSP
		out.Type = diagnostic.RevocationOCSP
		out.ProductionDate = resp.ProducedAt.UTC()
		out.ThisUpdate = resp.ThisUpdate.UTC()
		if !resp.NextUpdate.IsZero() {
			next := resp.NextUpdate.UTC()
			out.NextUpdate = &next
		}
		out.Signature = basicSignature(resp.SignatureAlgorithm)
		out.Signature.Intact = signer != nil && resp.CheckSignatureFrom(signer) == nil

		for _, c := range subjects {
			if c.SerialNumber == nil || resp.SerialNumber == nil || c.SerialNumber.Cmp(resp.SerialNumber) != 0 {
				continue
			}
			if resp.Status != ocsp.Good && resp.Status != ocsp.Revoked {
				continue
			}
			st := status{cert: c, entry: diagnostic.CertificateRevocation{Revocation: id}}
			if resp.Status == ocsp.Revoked {
				at := resp.RevokedAt.UTC()
				st.entry.Revoked = true
				st.entry.Reason = Reason(resp.RevocationReason)
				st.entry.RevocationDate = &at
			}
			statuses = append(statuses, st)
		}
	}
	return out, statuses
}
