package certs

import (
	"bytes"
	"crypto/x509"
	"time"

	"github.com/georgepadayatti/goades/diagnostic"
)

// Snapshot builds the diagnostic data describing certs and anchors at
// validationTime. Each certificate is linked to the first candidate whose
// subject matches its issuer and whose key verifies its signature; a
// certificate without such an issuer is reported as not intact. Anchors
// are trusted. Duplicates are described once.
//
// Each revocation is signed by the first known certificate that verifies
// it, or by the responder certificate an OCSP response carries, and gives
// a status to the certificates it covers.
func Snapshot(validationTime time.Time, certs, anchors []*x509.Certificate, revocations ...*Revocation) (*diagnostic.Data, error) {
	type entry struct {
		x509 *x509.Certificate
		diag *diagnostic.Certificate
	}
	var entries []*entry
	seen := make(map[string]*entry)

	add := func(cert *x509.Certificate, trusted bool) error {
		id := ID(cert)
		if e, ok := seen[id]; ok {
			e.diag.Trusted = e.diag.Trusted || trusted
			return nil
		}
		d, err := Describe(cert)
		if err != nil {
			return err
		}
		d.Trusted = trusted
		e := &entry{x509: cert, diag: d}
		seen[id] = e
		entries = append(entries, e)
		return nil
	}
	for _, c := range certs {
		if err := add(c, false); err != nil {
			return nil, err
		}
	}
	for _, c := range anchors {
		if err := add(c, true); err != nil {
			return nil, err
		}
	}
	for _, r := range revocations {
		if r.OCSP != nil && r.OCSP.Certificate != nil {
			if err := add(r.OCSP.Certificate, false); err != nil {
				return nil, err
			}
		}
	}

	data := &diagnostic.Data{ValidationDate: validationTime.UTC()}
	for _, e := range entries {
		for _, candidate := range entries {
			if !bytes.Equal(e.x509.RawIssuer, candidate.x509.RawSubject) {
				continue
			}
			if e.x509.CheckSignatureFrom(candidate.x509) != nil {
				continue
			}
			e.diag.Signature.Intact = true
			e.diag.Signature.KeyLength = candidate.diag.PublicKey.Size
			if candidate == e {
				e.diag.SelfSigned = true
			} else {
				e.diag.SigningCertificate = candidate.diag.ID
			}
			break
		}
		data.Certificates = append(data.Certificates, e.diag)
	}

	subjects := make([]*x509.Certificate, len(entries))
	for i, e := range entries {
		subjects[i] = e.x509
	}
	described := make(map[string]bool)
	for _, r := range revocations {
		if described[RevocationID(r)] {
			continue
		}
		described[RevocationID(r)] = true
		signer := revocationSigner(r, subjects)
		rev, statuses := describeRevocation(r, signer, subjects)
		if signer != nil {
			rev.SigningCertificate = ID(signer)
		}
		for _, st := range statuses {
			e := seen[ID(st.cert)]
			e.diag.Revocations = append(e.diag.Revocations, st.entry)
		}
		data.Revocations = append(data.Revocations, rev)
	}

	if err := data.Index(); err != nil {
		return nil, err
	}
	return data, nil
}

func revocationSigner(r *Revocation, candidates []*x509.Certificate) *x509.Certificate {
	if r.OCSP != nil && r.OCSP.Certificate != nil {
		return r.OCSP.Certificate
	}
	for _, c := range candidates {
		switch {
		case r.CRL != nil:
			if bytes.Equal(r.CRL.RawIssuer, c.RawSubject) && r.CRL.CheckSignatureFrom(c) == nil {
				return c
			}
		case r.OCSP != nil:
			if r.OCSP.CheckSignatureFrom(c) == nil {
				return c
			}
		}
	}
	return nil
}
