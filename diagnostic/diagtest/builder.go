// Package diagtest builds diagnostic data snapshots for tests.
package diagtest

import (
	"fmt"
	"time"

	"github.com/georgepadayatti/goades/diagnostic"
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Object returns a covered object reference.
func Object(id string, category diagnostic.ObjectCategory) diagnostic.TimestampedObject {
	return diagnostic.TimestampedObject{ID: id, Category: category}
}

// Builder accumulates tokens of one snapshot. Every token is signed with
// RSA 2048 / SHA256 and intact unless a test changes it.
type Builder struct {
	data  *diagnostic.Data
	certs map[string]*diagnostic.Certificate
}

// New starts a snapshot validated at validationDate.
func New(validationDate time.Time) *Builder {
	return &Builder{
		data:  &diagnostic.Data{ValidationDate: validationDate},
		certs: make(map[string]*diagnostic.Certificate),
	}
}

// ValidationDate returns the snapshot's validation date.
func (b *Builder) ValidationDate() time.Time {
	return b.data.ValidationDate
}

func basicSignature() diagnostic.BasicSignature {
	return diagnostic.BasicSignature{
		EncryptionAlgorithm: "RSA",
		DigestAlgorithm:     "SHA256",
		Intact:              true,
	}
}

func (b *Builder) addCertificate(c *diagnostic.Certificate) *diagnostic.Certificate {
	if c.PublicKey.Algorithm == "" {
		c.PublicKey = diagnostic.PublicKey{Algorithm: "RSA", Size: 2048}
	}
	c.Signature = basicSignature()
	b.data.Certificates = append(b.data.Certificates, c)
	b.certs[c.ID] = c
	return c
}

// Root adds a trusted self-signed certificate.
func (b *Builder) Root(id string, notBefore, notAfter time.Time) *diagnostic.Certificate {
	return b.addCertificate(&diagnostic.Certificate{
		ID:         id,
		Subject:    "CN=" + id,
		NotBefore:  notBefore,
		NotAfter:   notAfter,
		Trusted:    true,
		SelfSigned: true,
		KeyUsages:  []string{"keyCertSign", "crlSign"},
	})
}

// CA adds an intermediate certificate issued by issuer.
func (b *Builder) CA(id string, issuer *diagnostic.Certificate, notBefore, notAfter time.Time) *diagnostic.Certificate {
	return b.addCertificate(&diagnostic.Certificate{
		ID:                 id,
		Subject:            "CN=" + id,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		SigningCertificate: issuer.ID,
		KeyUsages:          []string{"keyCertSign", "crlSign"},
	})
}

// Leaf adds an end-entity signing certificate issued by issuer.
func (b *Builder) Leaf(id string, issuer *diagnostic.Certificate, notBefore, notAfter time.Time) *diagnostic.Certificate {
	return b.addCertificate(&diagnostic.Certificate{
		ID:                 id,
		Subject:            "CN=" + id,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		SigningCertificate: issuer.ID,
		KeyUsages:          []string{"nonRepudiation"},
	})
}

// TSA adds a timestamping unit certificate issued by issuer.
func (b *Builder) TSA(id string, issuer *diagnostic.Certificate, notBefore, notAfter time.Time) *diagnostic.Certificate {
	return b.addCertificate(&diagnostic.Certificate{
		ID:                 id,
		Subject:            "CN=" + id,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		SigningCertificate: issuer.ID,
		KeyUsages:          []string{"digitalSignature"},
	})
}

// Responder adds an OCSP responder certificate issued by issuer. It
// carries the id-pkix-ocsp-nocheck extension.
func (b *Builder) Responder(id string, issuer *diagnostic.Certificate, notBefore, notAfter time.Time) *diagnostic.Certificate {
	return b.addCertificate(&diagnostic.Certificate{
		ID:                 id,
		Subject:            "CN=" + id,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		SigningCertificate: issuer.ID,
		KeyUsages:          []string{"digitalSignature"},
		OCSPNoCheck:        true,
	})
}

// CRL adds a CRL issued by the issuer of cert and records a good status
// for cert. The CRL is produced at thisUpdate.
func (b *Builder) CRL(id string, cert *diagnostic.Certificate, thisUpdate, nextUpdate time.Time) *diagnostic.Revocation {
	next := nextUpdate
	r := &diagnostic.Revocation{
		ID:                 id,
		Type:               diagnostic.RevocationCRL,
		ProductionDate:     thisUpdate,
		ThisUpdate:         thisUpdate,
		NextUpdate:         &next,
		SigningCertificate: cert.SigningCertificate,
		Signature:          basicSignature(),
	}
	b.data.Revocations = append(b.data.Revocations, r)
	cert.Revocations = append(cert.Revocations, diagnostic.CertificateRevocation{Revocation: id})
	return r
}

// OCSP adds an OCSP response for cert signed by responder and records a
// good status for cert.
func (b *Builder) OCSP(id string, cert, responder *diagnostic.Certificate, thisUpdate, nextUpdate time.Time) *diagnostic.Revocation {
	r := b.CRL(id, cert, thisUpdate, nextUpdate)
	r.Type = diagnostic.RevocationOCSP
	r.SigningCertificate = responder.ID
	return r
}

// FreshCRL adds a CRL for cert produced one hour before the validation
// date and valid for a week.
func (b *Builder) FreshCRL(cert *diagnostic.Certificate) *diagnostic.Revocation {
	at := b.data.ValidationDate.Add(-time.Hour)
	return b.CRL("crl-"+cert.ID, cert, at, at.Add(7*24*time.Hour))
}

// Revoke marks cert as revoked by the revocation data r.
func (b *Builder) Revoke(cert *diagnostic.Certificate, r *diagnostic.Revocation, at time.Time, reason diagnostic.RevocationReason) {
	for i := range cert.Revocations {
		if cert.Revocations[i].Revocation == r.ID {
			date := at
			cert.Revocations[i].Revoked = true
			cert.Revocations[i].Reason = reason
			cert.Revocations[i].RevocationDate = &date
			return
		}
	}
	panic(fmt.Sprintf("diagtest: %s has no status from %s", cert.ID, r.ID))
}

// Signature adds a signature by signer over one intact document.
func (b *Builder) Signature(id string, signer *diagnostic.Certificate, claimed time.Time) *diagnostic.Signature {
	at := claimed
	s := &diagnostic.Signature{
		ID:                 id,
		Format:             "PAdES-BASELINE-B",
		ClaimedSigningTime: &at,
		SigningCertificate: signer.ID,
		DigestMatchers: []diagnostic.DigestMatcher{{
			Type:            diagnostic.MatcherReference,
			Name:            "document.pdf",
			DigestAlgorithm: "SHA256",
			DataFound:       true,
			DataIntact:      true,
		}},
		Signature: basicSignature(),
	}
	b.data.Signatures = append(b.data.Signatures, s)
	return s
}

// Timestamp adds a timestamp with an intact message imprint.
func (b *Builder) Timestamp(id string, typ diagnostic.TimestampType, tsa *diagnostic.Certificate,
	production time.Time, covered ...diagnostic.TimestampedObject) *diagnostic.Timestamp {
	t := &diagnostic.Timestamp{
		ID:             id,
		Type:           typ,
		ProductionTime: production,
		MessageImprint: diagnostic.DigestMatcher{
			Type:            diagnostic.MatcherMessageImprint,
			DigestAlgorithm: "SHA256",
			DataFound:       true,
			DataIntact:      true,
		},
		SigningCertificate: tsa.ID,
		Signature:          basicSignature(),
		TimestampedObjects: covered,
	}
	b.data.Timestamps = append(b.data.Timestamps, t)
	return t
}

// SignatureTimestamp adds a signature timestamp over s.
func (b *Builder) SignatureTimestamp(id string, s *diagnostic.Signature, tsa *diagnostic.Certificate, production time.Time) *diagnostic.Timestamp {
	t := b.Timestamp(id, diagnostic.SignatureTimestamp, tsa, production,
		Object(s.ID, diagnostic.CategorySignature))
	s.Timestamps = append(s.Timestamps, id)
	return t
}

// ContentTimestamp adds a content timestamp over the signed data of s.
func (b *Builder) ContentTimestamp(id string, s *diagnostic.Signature, tsa *diagnostic.Certificate, production time.Time) *diagnostic.Timestamp {
	t := b.Timestamp(id, diagnostic.ContentTimestamp, tsa, production,
		Object(s.DigestMatchers[0].Name, diagnostic.CategorySignedData))
	s.Timestamps = append(s.Timestamps, id)
	return t
}

// ArchiveTimestamp adds an archive timestamp over s and the timestamps
// already attached to it.
func (b *Builder) ArchiveTimestamp(id string, s *diagnostic.Signature, tsa *diagnostic.Certificate, production time.Time) *diagnostic.Timestamp {
	covered := []diagnostic.TimestampedObject{Object(s.ID, diagnostic.CategorySignature)}
	for _, ts := range s.Timestamps {
		covered = append(covered, Object(ts, diagnostic.CategoryTimestamp))
	}
	t := b.Timestamp(id, diagnostic.ArchiveTimestamp, tsa, production, covered...)
	s.Timestamps = append(s.Timestamps, id)
	return t
}

// EvidenceRecord adds an evidence record made of the given timestamps,
// with one intact digest matcher per covered object.
func (b *Builder) EvidenceRecord(id string, timestamps []*diagnostic.Timestamp, covered ...diagnostic.TimestampedObject) *diagnostic.EvidenceRecord {
	e := &diagnostic.EvidenceRecord{ID: id, CoveredObjects: covered}
	for _, t := range timestamps {
		t.Type = diagnostic.EvidenceRecordTimestamp
		e.Timestamps = append(e.Timestamps, t.ID)
	}
	for _, o := range covered {
		e.DigestMatchers = append(e.DigestMatchers, diagnostic.DigestMatcher{
			Type:            diagnostic.MatcherEvidenceRecord,
			Name:            o.ID,
			DigestAlgorithm: "SHA256",
			DataFound:       true,
			DataIntact:      true,
		})
	}
	b.data.EvidenceRecords = append(b.data.EvidenceRecords, e)
	return e
}

// CoverWithRecord records that e covers the timestamp t.
func (b *Builder) CoverWithRecord(t *diagnostic.Timestamp, e *diagnostic.EvidenceRecord) {
	t.EvidenceRecords = append(t.EvidenceRecords, e.ID)
}

// Data returns the snapshot without indexing it.
func (b *Builder) Data() *diagnostic.Data {
	return b.data
}

// Build fills certificate chains and indexes the snapshot.
func (b *Builder) Build() (*diagnostic.Data, error) {
	for _, s := range b.data.Signatures {
		if s.CertificateChain == nil {
			s.CertificateChain = b.chain(s.SigningCertificate)
		}
	}
	for _, t := range b.data.Timestamps {
		if t.CertificateChain == nil {
			t.CertificateChain = b.chain(t.SigningCertificate)
		}
	}
	for _, r := range b.data.Revocations {
		if r.CertificateChain == nil {
			r.CertificateChain = b.chain(r.SigningCertificate)
		}
	}
	if err := b.data.Index(); err != nil {
		return nil, err
	}
	return b.data, nil
}

// MustBuild is Build for fixtures that are known to be valid.
func (b *Builder) MustBuild() *diagnostic.Data {
	d, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("diagtest: %v", err))
	}
	return d
}

func (b *Builder) chain(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		c, ok := b.certs[id]
		if !ok {
			break
		}
		seen[id] = true
		out = append(out, id)
		if c.Trusted || c.SelfSigned {
			break
		}
		id = c.SigningCertificate
	}
	return out
}
